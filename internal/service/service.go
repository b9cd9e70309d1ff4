// Package service contains the business logic layer: validation, limit
// clamping, slug generation, and orchestration of repository calls. It
// knows nothing about HTTP — handlers translate requests in and errors
// out — and nothing about SQL, which stays behind the repository
// interfaces.
//
// Every operation derives a bounded context for its store calls, so a
// slow query cannot hold a request open indefinitely.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nurso96/PrintMaker-Forum/internal/apperror"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 50000
	MaxTagCount      = 5
	MaxTagLength     = 30

	DefaultListLimit         = 20
	DefaultThreadSearchLimit = 50
	DefaultUserSearchLimit   = 20
	MaxListLimit             = 100

	// storeTimeout bounds every repository call made on behalf of a
	// request.
	storeTimeout = 5 * time.Second
)

// validate is shared by all services. Field names in error messages come
// from the json tags, since those are the names callers actually sent.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// checkStruct runs struct validation and converts the first failure into
// the domain's validation error.
func checkStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperror.ValidationFailed(fe.Field(), validationMessage(fe))
	}
	return fmt.Errorf("validating input: %w", err)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		switch fe.Kind() {
		case reflect.Slice:
			return fmt.Sprintf("%s must have at most %s items", fe.Field(), fe.Param())
		case reflect.String:
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		default:
			return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
		}
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "ne":
		return fmt.Sprintf("%s must not be %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// storeCtx bounds a repository call. Callers must defer the cancel.
func storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storeTimeout)
}

// clampLimit maps a requested page size into [1, MaxListLimit], using def
// when the caller sent nothing (or nonsense). Oversized requests are
// capped rather than rejected.
func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// Slugify turns a title into its URL slug: lowercase, runs of anything
// non-alphanumeric collapse to a single dash, no leading or trailing
// dashes. "Using AI to Jumpstart Your CAD Workflow!" becomes
// "using-ai-to-jumpstart-your-cad-workflow".
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
