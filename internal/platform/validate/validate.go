// Package validate evaluates declarative field rules against request input.
//
// A Schema maps field names to a Rule. Check resolves every field value,
// skips absent optional fields and reports one FieldError per failing field,
// sorted by field name.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
)

// Rule constrains a single field. Min and Max are numeric bounds for numbers
// and length bounds for strings and slices.
type Rule struct {
	Required bool
	Min      *float64
	Max      *float64
	Pattern  string
	Enum     []string
	Message  string
}

type Schema map[string]Rule

// Fields holds the values to check, keyed like the schema.
type Fields map[string]any

var (
	v = validator.New()

	patternMu sync.Mutex
	patterns  = map[string]*regexp.Regexp{}
)

func Bound(f float64) *float64 { return &f }

// Check returns nil when all fields pass, otherwise an apierr validation error.
func Check(schema Schema, fields Fields) error {
	if errs := Evaluate(schema, fields); len(errs) > 0 {
		return apierr.Validation(errs...)
	}
	return nil
}

func Evaluate(schema Schema, fields Fields) []apierr.FieldError {
	var out []apierr.FieldError
	for name, rule := range schema {
		if msg := rule.evaluate(fields[name]); msg != "" {
			if rule.Message != "" {
				msg = rule.Message
			}
			out = append(out, apierr.FieldError{Field: name, Message: msg})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func (r Rule) evaluate(raw any) string {
	val, present := resolve(raw)
	if !present {
		if r.Required {
			return "is required"
		}
		return ""
	}
	if tag := r.tag(val); tag != "" {
		if err := v.Var(val, tag); err != nil {
			return describe(err, r)
		}
	}
	if r.Pattern != "" {
		s, ok := val.(string)
		if !ok {
			return "must be a string"
		}
		re, err := compile(r.Pattern)
		if err != nil {
			return "has an invalid pattern rule"
		}
		if !re.MatchString(s) {
			return "has an invalid format"
		}
	}
	return ""
}

func (r Rule) tag(val any) string {
	var parts []string
	if r.Required && isCollection(val) {
		parts = append(parts, "required")
	}
	if r.Min != nil {
		parts = append(parts, "min="+formatBound(*r.Min))
	}
	if r.Max != nil {
		parts = append(parts, "max="+formatBound(*r.Max))
	}
	if len(r.Enum) > 0 {
		parts = append(parts, "oneof="+strings.Join(r.Enum, " "))
	}
	return strings.Join(parts, ",")
}

// resolve dereferences pointers; a nil pointer or nil interface is absent.
func resolve(raw any) (any, bool) {
	if raw == nil {
		return nil, false
	}
	rv := reflect.ValueOf(raw)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	return rv.Interface(), true
}

// isCollection reports whether an empty value of val's kind counts as missing.
func isCollection(val any) bool {
	switch reflect.ValueOf(val).Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return true
	default:
		return false
	}
}

func describe(err error, r Rule) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "is invalid"
	}
	fe := verrs[0]
	isText := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isText {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isText {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", strings.Join(r.Enum, ", "))
	default:
		return "is invalid"
	}
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func compile(pattern string) (*regexp.Regexp, error) {
	patternMu.Lock()
	defer patternMu.Unlock()
	if re, ok := patterns[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patterns[pattern] = re
	return re, nil
}
