// Package validation validates lesson lifecycle payloads received from the
// lesson service before they reach the billing core.
package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"bursar/pkg/models"
)

var validate = validator.New()

// ValidateStruct runs tag-based validation over any payload struct
func ValidateStruct(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("field %s failed validation on %s", e.Field(), e.Tag())
		}
		return err
	}
	return nil
}

// ValidLessonDuration reports whether the given duration is one of the
// enumerated buckets. The fee table deliberately tolerates unknown values
// (they price as the longest lesson), so callers use this to warn rather
// than reject.
func ValidLessonDuration(d models.LessonDuration) bool {
	switch d {
	case models.DurationThirtyMinutes, models.DurationFortyFiveMinutes, models.DurationOneHour:
		return true
	}
	return false
}
