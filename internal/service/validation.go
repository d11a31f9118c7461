package service

import (
	"errors"
	"fmt"
	"learnhub_backend/internal/util"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput 把 validator 的第一条错误转换为 ValidationError
func validateInput(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return &util.ValidationError{Message: err.Error()}
	}
	fe := ves[0]
	return &util.ValidationError{
		Field:   strings.ToLower(fe.Field()),
		Message: describe(fe),
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gtfield":
		return fmt.Sprintf("must be after %s", strings.ToLower(fe.Param()))
	}
	return fmt.Sprintf("failed %q check", fe.Tag())
}

func isNotFound(err error) bool {
	return errors.Is(err, util.ErrNotFound)
}
