package handlers

import (
	"errors"
	"net/http"

	bursarapi "bursar/pkg/api/bursar"
	"bursar/pkg/logging"
	"bursar/pkg/middleware"
	"bursar/pkg/models"
	"bursar/pkg/validation"
)

// Lesson Event Endpoints
//
// These are called by the scheduling service with a service token whenever a
// lesson is booked, rescheduled to a different duration, or cancelled.

// LessonBooked creates an invoice for a newly booked lesson
func LessonBooked(c middleware.Context) {
	var req bursarapi.LessonBookedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := validation.ValidateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: err.Error()})
		return
	}

	if !validation.ValidLessonDuration(req.Duration) {
		// Unknown durations are billed at the longest lesson rate rather
		// than rejected, so the lesson service never loses a booking.
		logger.WithFields(logging.Fields{
			"lesson_id": req.LessonID,
			"duration":  req.Duration,
		}).Warn("Unrecognized lesson duration, billing at the longest rate")
	}

	invoice, err := CreateInvoiceForLesson(c.Request.Context(), models.LessonEvent{
		LessonID:  req.LessonID,
		StudentID: req.StudentID,
		Duration:  req.Duration,
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, bursarapi.ErrorResponse{Error: "No account for student"})
			return
		}
		logger.WithFields(logging.Fields{
			"lesson_id":  req.LessonID,
			"student_id": req.StudentID,
			"error":      err,
		}).Error("Failed to create invoice")
		c.JSON(http.StatusInternalServerError, bursarapi.ErrorResponse{Error: "Failed to create invoice"})
		return
	}

	c.JSON(http.StatusCreated, bursarapi.InvoiceResponse{Invoice: invoice})
}

// LessonUpdated adjusts the invoice for a lesson whose duration changed. If
// the lesson somehow has no invoice yet, one is created as if it had just
// been booked.
func LessonUpdated(c middleware.Context) {
	lessonID := c.Param("lesson_id")
	if lessonID == "" {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: "Lesson ID required"})
		return
	}

	var req bursarapi.LessonUpdatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := validation.ValidateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: err.Error()})
		return
	}

	if !validation.ValidLessonDuration(req.Duration) {
		logger.WithFields(logging.Fields{
			"lesson_id": lessonID,
			"duration":  req.Duration,
		}).Warn("Unrecognized lesson duration, billing at the longest rate")
	}

	invoice, err := UpdateInvoiceForLesson(c.Request.Context(), models.LessonEvent{
		LessonID:  lessonID,
		StudentID: req.StudentID,
		Duration:  req.Duration,
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, bursarapi.ErrorResponse{Error: "No account for student"})
			return
		}
		logger.WithFields(logging.Fields{
			"lesson_id": lessonID,
			"error":     err,
		}).Error("Failed to update invoice")
		c.JSON(http.StatusInternalServerError, bursarapi.ErrorResponse{Error: "Failed to update invoice"})
		return
	}

	c.JSON(http.StatusOK, bursarapi.InvoiceResponse{Invoice: invoice})
}

// LessonDeleted voids the invoice for a cancelled lesson. Lessons that were
// never booked carry no invoice, and a missing invoice is not an error; in
// both cases the cancellation is acknowledged without touching the ledger.
func LessonDeleted(c middleware.Context) {
	lessonID := c.Param("lesson_id")
	if lessonID == "" {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: "Lesson ID required"})
		return
	}

	wasBooked := c.DefaultQuery("was_booked", "true") == "true"

	if err := MarkInvoiceDeletedForLesson(c.Request.Context(), lessonID, wasBooked); err != nil {
		logger.WithFields(logging.Fields{
			"lesson_id": lessonID,
			"error":     err,
		}).Error("Failed to void invoice")
		c.JSON(http.StatusInternalServerError, bursarapi.ErrorResponse{Error: "Failed to void invoice"})
		return
	}

	c.JSON(http.StatusOK, middleware.H{"message": "Lesson billing voided"})
}
