// Package validation holds the input rules shared by request binding and services.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"yamdb/internal/apperrors"
	"yamdb/internal/microservices/http-api/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ReservedUsername cannot be registered because it names the self-profile endpoint.
const ReservedUsername = "me"

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	mustRegister(v)
	return v
}

func mustRegister(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonTagName)
	if err := v.RegisterValidation("username", validUsername); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("slug", validSlug); err != nil {
		panic(err)
	}
}

// RegisterGinValidators installs the custom tags on gin's binding engine.
func RegisterGinValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	v.RegisterTagNameFunc(jsonTagName)
	if err := v.RegisterValidation("username", validUsername); err != nil {
		return err
	}
	return v.RegisterValidation("slug", validSlug)
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func validUsername(fl validator.FieldLevel) bool {
	return UsernameMessage(fl.Field().String()) == ""
}

func validSlug(fl validator.FieldLevel) bool {
	return slugPattern.MatchString(fl.Field().String())
}

// UsernameMessage returns why username is unacceptable, or "" when it is fine.
func UsernameMessage(username string) string {
	switch {
	case username == "":
		return "This field is required."
	case len(username) > models.UsernameMaxLength:
		return maxLengthMessage(models.UsernameMaxLength)
	case strings.EqualFold(username, ReservedUsername):
		return fmt.Sprintf("Username %q is not allowed.", username)
	case !usernamePattern.MatchString(username):
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return ""
	}
}

// EmailMessage returns why email is unacceptable, or "" when it is fine.
func EmailMessage(email string) string {
	switch {
	case email == "":
		return "This field is required."
	case len(email) > models.EmailMaxLength:
		return maxLengthMessage(models.EmailMaxLength)
	case validate.Var(email, "email") != nil:
		return "Enter a valid email address."
	default:
		return ""
	}
}

// SlugMessage returns why slug is unacceptable, or "" when it is fine.
func SlugMessage(slug string) string {
	switch {
	case slug == "":
		return "This field is required."
	case len(slug) > models.SlugMaxLength:
		return maxLengthMessage(models.SlugMaxLength)
	case !slugPattern.MatchString(slug):
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	default:
		return ""
	}
}

// Identity validates a username/email pair the way signup and user creation require.
func Identity(username, email string) *apperrors.ValidationError {
	verr := &apperrors.ValidationError{}
	if msg := UsernameMessage(username); msg != "" {
		verr.Add("username", msg)
	}
	if msg := EmailMessage(email); msg != "" {
		verr.Add("email", msg)
	}
	if !verr.HasErrors() {
		return nil
	}
	return verr
}

// FromBindingError converts a gin binding error into field-keyed messages.
func FromBindingError(err error) *apperrors.ValidationError {
	verr := &apperrors.ValidationError{}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add(apperrors.NonFieldErrors, "Invalid request body: "+err.Error())
		return verr
	}

	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), message(fe))
	}
	return verr
}

func maxLengthMessage(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "username":
		return UsernameMessage(fmt.Sprint(fe.Value()))
	case "slug":
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}
