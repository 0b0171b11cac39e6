package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type recurrenceRuleRequest struct {
	Frequency string     `json:"frequency" validate:"omitempty,oneof=daily weekly"`
	Interval  int        `json:"interval" validate:"omitempty,min=1"`
	Count     *int       `json:"count" validate:"omitempty,min=1"`
	Until     *time.Time `json:"until"`
}

type createBookingRequest struct {
	ResourceID string                 `json:"resource_id" validate:"required"`
	MemberID   string                 `json:"member_id"`
	LocationID string                 `json:"location_id"`
	Title      string                 `json:"title" validate:"required"`
	StartTime  time.Time              `json:"start_time" validate:"required"`
	EndTime    time.Time              `json:"end_time" validate:"required"`
	Rule       *recurrenceRuleRequest `json:"rule"`
}

type updateBookingRequest struct {
	Scope      string     `json:"scope" validate:"omitempty,oneof=one future all"`
	Title      *string    `json:"title"`
	MemberID   *string    `json:"member_id"`
	ResourceID *string    `json:"resource_id"`
	StartTime  *time.Time `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
}

type setStatusRequest struct {
	Status          string `json:"status" validate:"required,oneof=scheduled attended no-show cancelled"`
	AbsenceReasonID string `json:"absence_reason_id"`
}

func validateStruct(data any) map[string]string {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	out := make(map[string]string)
	if vErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range vErrs {
			out[fe.Field()] = fieldMessage(fe)
		}
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Minimum value is %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("Invalid %s field", fe.Field())
	}
}
