package validator

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/go-playground/validator/v10"
)

// WindowLayout is the wire format of the availability window query
// parameters, e.g. "24-05-29_09:10:01". Values are interpreted as UTC.
const WindowLayout = "06-01-02_15:04:05"

var orderingFields = map[string]bool{
	"number":       true,
	"beds":         true,
	"cost_per_day": true,
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type RoomValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewRoomValidator(log *logger.Logger) *RoomValidator {
	return &RoomValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *RoomValidator) Validate(room *model.Room) error {
	if err := v.validate.Struct(room); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *RoomValidator) ValidateUpdate(update *model.RoomUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// ParseFilter extracts the list filters from the query string. The window
// parameters come as a pair; a lone start_time or end_time is rejected.
func (v *RoomValidator) ParseFilter(query url.Values) (*model.RoomFilter, error) {
	filter := &model.RoomFilter{}

	if s := query.Get("beds"); s != "" {
		beds, err := strconv.Atoi(s)
		if err != nil || beds < 1 {
			return nil, ValidationErrors{{Field: "beds", Message: fmt.Sprintf("invalid beds filter: %s", s)}}
		}
		filter.Beds = &beds
	}

	if s := query.Get("cost_per_day"); s != "" {
		cost, err := model.ParseCost(s)
		if err != nil {
			return nil, ValidationErrors{{Field: "cost_per_day", Message: fmt.Sprintf("invalid cost_per_day filter: %s", s)}}
		}
		filter.CostPerDay = &cost
	}

	startStr := query.Get("start_time")
	endStr := query.Get("end_time")
	if startStr != "" || endStr != "" {
		if startStr == "" || endStr == "" {
			return nil, ValidationErrors{{
				Field:   "start_time",
				Message: "start_time and end_time must be provided together",
			}}
		}

		start, err := time.ParseInLocation(WindowLayout, startStr, time.UTC)
		if err != nil {
			return nil, ValidationErrors{{
				Field:   "start_time",
				Message: fmt.Sprintf("invalid start_time, expected format %s", WindowLayout),
			}}
		}
		end, err := time.ParseInLocation(WindowLayout, endStr, time.UTC)
		if err != nil {
			return nil, ValidationErrors{{
				Field:   "end_time",
				Message: fmt.Sprintf("invalid end_time, expected format %s", WindowLayout),
			}}
		}
		if end.Before(start) {
			return nil, ValidationErrors{{
				Field:   "end_time",
				Message: "end_time cannot be before start_time",
			}}
		}

		filter.Window = &model.TimeWindow{Start: start, End: end}
	}

	if s := query.Get("ordering"); s != "" {
		field := strings.TrimPrefix(s, "-")
		if !orderingFields[field] {
			return nil, ValidationErrors{{Field: "ordering", Message: fmt.Sprintf("unsupported ordering field: %s", s)}}
		}
		filter.Ordering = s
	}

	return filter, nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
