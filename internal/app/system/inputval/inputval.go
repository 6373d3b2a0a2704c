// Package inputval validates form and JSON input structs with
// go-playground/validator and turns failures into user-facing messages.
//
// Fields carry `validate` rules and an optional `label` used in messages:
//
//	type input struct {
//		Name string `validate:"required,max=200" label:"Name"`
//	}
package inputval

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/preemhub/internal/app/system/timezones"
	"github.com/dalemusser/preemhub/internal/app/system/urlrewrite"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// Result collects the failures of a Validate call.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Fields maps field label to message, for JSON error bodies.
func (r *Result) Fields() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
			return f.Name
		})
		// stricter than the built-in rule: no display names or stray dots
		_ = v.RegisterValidation("email", func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		})
		_ = v.RegisterValidation("timezone", func(fl validator.FieldLevel) bool {
			return timezones.Valid(fl.Field().String())
		})
		_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return IsValidHTTPURL(fl.Field().String())
		})
		_ = v.RegisterValidation("docid", func(fl validator.FieldLevel) bool {
			return IsValidDocID(fl.Field().String())
		})
		_ = v.RegisterValidation("pathid", func(fl validator.FieldLevel) bool {
			return IsValidPathID(fl.Field().String())
		})
		_ = v.RegisterValidation("preemtype", func(fl validator.FieldLevel) bool {
			return IsValidPreemType(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Validate runs the struct's rules. A non-struct value yields a single
// error rather than a panic.
func Validate(v any) *Result {
	res := &Result{}
	err := instance().Struct(v)
	if err == nil {
		return res
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return res
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more.", label, fe.Param())
	case "email":
		return "A valid email address is required."
	case "timezone":
		return "Please select a valid time zone."
	case "httpurl":
		return label + " must be an http or https URL."
	case "docid":
		return label + " must not contain '/'."
	case "pathid":
		return label + " must not contain '/' or be a reserved word such as \"edit\" or \"new\"."
	case "preemtype":
		return fmt.Sprintf("%s must be %q or %q.", label, models.PreemPooled, models.PreemOneShot)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, fe.Param())
	}
	return label + " is invalid."
}

// IsValidEmail accepts a bare RFC 5322 address (no display name).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	local, domain, ok := strings.Cut(s, "@")
	if !ok {
		return false
	}
	return dotAtom(local) && dotAtom(domain)
}

func dotAtom(s string) bool {
	return s != "" && !strings.HasPrefix(s, ".") && !strings.HasSuffix(s, ".") && !strings.Contains(s, "..")
}

// IsValidHTTPURL accepts absolute http and https URLs with a host.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidDocID accepts a non-blank id that can be used as a path segment.
func IsValidDocID(s string) bool {
	return strings.TrimSpace(s) != "" && !strings.Contains(s, "/")
}

// IsValidPathID accepts a document id that also appears as a URL segment:
// a valid id that no fixed segment of the URL table ("edit", "new",
// "series", ...) would capture first.
func IsValidPathID(s string) bool {
	return IsValidDocID(s) && !urlrewrite.IsReservedSegment(strings.TrimSpace(s))
}

// IsValidPreemType accepts the preem types, case-insensitively.
func IsValidPreemType(s string) bool {
	_, ok := NormalizePreemType(s)
	return ok
}

// NormalizePreemType maps s to its canonical preem type.
func NormalizePreemType(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case strings.ToLower(models.PreemPooled):
		return models.PreemPooled, true
	case strings.ToLower(models.PreemOneShot), "oneshot", "one_shot":
		return models.PreemOneShot, true
	}
	return "", false
}
