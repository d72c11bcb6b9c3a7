package validation

import (
	"testing"

	"bursar/pkg/api/bursar"
	"bursar/pkg/models"
)

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		payload bursar.LessonBookedRequest
		wantErr bool
	}{
		{
			name: "valid booking",
			payload: bursar.LessonBookedRequest{
				LessonID: "42", StudentID: "111", Duration: models.DurationThirtyMinutes,
			},
		},
		{
			name: "missing lesson id",
			payload: bursar.LessonBookedRequest{
				StudentID: "111", Duration: models.DurationThirtyMinutes,
			},
			wantErr: true,
		},
		{
			name: "non numeric student id",
			payload: bursar.LessonBookedRequest{
				LessonID: "42", StudentID: "alice", Duration: models.DurationThirtyMinutes,
			},
			wantErr: true,
		},
		{
			name: "missing duration",
			payload: bursar.LessonBookedRequest{
				LessonID: "42", StudentID: "111",
			},
			wantErr: true,
		},
		{
			name: "unknown duration is accepted",
			payload: bursar.LessonBookedRequest{
				LessonID: "42", StudentID: "111", Duration: models.LessonDuration("90"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.payload)
			if tt.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidLessonDuration(t *testing.T) {
	for _, d := range []models.LessonDuration{
		models.DurationThirtyMinutes,
		models.DurationFortyFiveMinutes,
		models.DurationOneHour,
	} {
		if !ValidLessonDuration(d) {
			t.Fatalf("expected %q to be valid", d)
		}
	}
	if ValidLessonDuration(models.LessonDuration("90")) {
		t.Fatalf("expected 90 to be unknown")
	}
	if ValidLessonDuration(models.LessonDuration("")) {
		t.Fatalf("expected empty duration to be unknown")
	}
}
