package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"finstats/internal/errors"
	"finstats/internal/models"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator with custom rules and error formatting
type Validator struct {
	validate *validator.Validate
}

// GetValidate returns the underlying validator.Validate instance for use with Echo
func (v *Validator) GetValidate() *validator.Validate {
	return v.validate
}

// Validate implements echo.Validator
func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

var (
	instance *Validator
	once     sync.Once
)

// GetValidator returns the shared validator instance
func GetValidator() *Validator {
	once.Do(func() {
		instance = NewValidator()
	})
	return instance
}

var currencyCodePattern = regexp.MustCompile(`^[A-Za-z]{3}$`)

// NewValidator creates a new validator instance with custom rules and configuration
func NewValidator() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("iso_date", validateISODate)
	_ = v.RegisterValidation("currency_code", validateCurrencyCode)
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("amount_minor", validateAmountMinor)
	_ = v.RegisterValidation("bool_flag", validateBoolFlag)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// validateISODate accepts a real calendar date written as YYYY-MM-DD
func validateISODate(fl validator.FieldLevel) bool {
	_, ok := models.ParseDate(fl.Field().String())
	return ok
}

// validateCurrencyCode accepts three letters in any case; callers uppercase before use
func validateCurrencyCode(fl validator.FieldLevel) bool {
	return currencyCodePattern.MatchString(strings.TrimSpace(fl.Field().String()))
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.IsValidTransactionType(strings.ToLower(strings.TrimSpace(fl.Field().String())))
}

// validateAmountMinor accepts zero and positive integer amounts
func validateAmountMinor(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fl.Field().Int() >= 0
	default:
		return false
	}
}

// ParseFlag reads a query flag written as true, false, 1 or 0 in any case.
// ok is false for anything else.
func ParseFlag(value string) (flag bool, ok bool) {
	value = strings.TrimSpace(value)
	switch {
	case strings.EqualFold(value, "true"), value == "1":
		return true, true
	case strings.EqualFold(value, "false"), value == "0":
		return false, true
	default:
		return false, false
	}
}

func validateBoolFlag(fl validator.FieldLevel) bool {
	_, ok := ParseFlag(fl.Field().String())
	return ok
}

// FieldErrors flattens validator errors into a json field name to message map.
// It returns nil when err carries no field errors.
func FieldErrors(err error) map[string]string {
	var validationErrs validator.ValidationErrors
	if !stderrors.As(err, &validationErrs) {
		return nil
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, fieldErr := range validationErrs {
		fieldErrors[fieldErr.Field()] = FormatFieldError(fieldErr)
	}
	return fieldErrors
}

// ErrorCodeFor picks the API error code reported for a failed validation.
// The first failing field decides; unknown tags fall back to VALIDATION_001.
func ErrorCodeFor(err error) errors.ErrorCode {
	var validationErrs validator.ValidationErrors
	if !stderrors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return errors.ValidationGeneral
	}

	switch validationErrs[0].Tag() {
	case "required":
		return errors.ValidationRequiredField
	case "iso_date":
		return errors.ValidationInvalidDate
	case "currency_code":
		return errors.ValidationCurrency
	case "transaction_type":
		return errors.TransactionInvalidType
	case "amount_minor":
		return errors.TransactionInvalidAmount
	case "oneof", "bool_flag":
		return errors.ValidationInvalidFormat
	default:
		return errors.ValidationGeneral
	}
}

// FormatFieldError converts a validator.FieldError to a human-readable message
func FormatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		default:
			return fmt.Sprintf("must be at most %s", fe.Param())
		}
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "iso_date":
		return "must be a date in YYYY-MM-DD format"
	case "currency_code":
		return "must be a 3-letter currency code"
	case "transaction_type":
		return "must be income or expense"
	case "amount_minor":
		return "must be a non-negative amount in minor units"
	case "bool_flag":
		return "must be one of: true false 1 0"
	default:
		return fmt.Sprintf("failed validation for '%s'", fe.Tag())
	}
}
