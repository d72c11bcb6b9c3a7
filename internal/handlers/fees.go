package handlers

import (
	"fmt"

	"bursar/pkg/models"
)

// Fixed price per lesson duration bucket, independent of teacher, date or
// lesson type.
const (
	feeThirtyMinutes    = 15
	feeFortyFiveMinutes = 18
	feeOneHour          = 20
)

// CalculateLessonFee maps a lesson duration bucket to its fixed price.
// Unrecognized durations price as a one-hour lesson; the legacy system
// behaved this way and callers rely on it for lessons entered through
// side channels.
func CalculateLessonFee(duration models.LessonDuration) int {
	switch duration {
	case models.DurationThirtyMinutes:
		return feeThirtyMinutes
	case models.DurationFortyFiveMinutes:
		return feeFortyFiveMinutes
	default:
		return feeOneHour
	}
}

// GenerateReferenceNumber builds the next invoice reference for a student:
// the student id, a dash, and the 1-based sequence number zero-padded to
// three digits. Once a student passes 999 invoices the sequence grows
// unpadded ("12-1000"). existingCount must be the number of invoices the
// student had before this one.
func GenerateReferenceNumber(studentID string, existingCount int) string {
	return fmt.Sprintf("%s-%03d", studentID, existingCount+1)
}
