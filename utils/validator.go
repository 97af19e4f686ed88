package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	var messages []string
	for _, err := range validationErrors {
		field := strings.ToLower(err.Field())
		param := err.Param()

		switch err.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "min":
			messages = append(messages, field+" must be at least "+param)
		case "max":
			messages = append(messages, field+" must be at most "+param)
		case "email":
			messages = append(messages, field+" must be a valid email")
		case "len":
			messages = append(messages, field+" must be exactly "+param+" characters")
		case "oneof":
			messages = append(messages, field+" must be one of: "+param)
		case "url":
			messages = append(messages, field+" must be a valid URL")
		case "datetime":
			messages = append(messages, field+" must be a date in "+param+" format")
		case "numeric":
			messages = append(messages, field+" must be numeric")
		default:
			messages = append(messages, field+" is invalid")
		}
	}

	return errors.New(strings.Join(messages, ", "))
}
