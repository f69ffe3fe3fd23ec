package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-formstore/pkg/model"
)

// Rules is the compiled form of a field's validation constraints.
type Rules struct {
	Required bool
	Min      *float64
	Max      *float64
	MinLen   *int
	MaxLen   *int
	Pattern  *regexp.Regexp
}

// RulesFor compiles the validation rules declared on a field. Malformed rule
// parameters are ignored.
func RulesFor(field model.Field) Rules {
	rules := Rules{Required: field.Required}
	for _, v := range field.Validations {
		switch v.Kind {
		case model.ValidationRuleMin:
			if val, ok := parseFloat(v.Params["value"]); ok {
				rules.Min = &val
			}
		case model.ValidationRuleMax:
			if val, ok := parseFloat(v.Params["value"]); ok {
				rules.Max = &val
			}
		case model.ValidationRuleMinLength:
			if val, ok := parseInt(v.Params["value"]); ok {
				rules.MinLen = &val
			}
		case model.ValidationRuleMaxLength:
			if val, ok := parseInt(v.Params["value"]); ok {
				rules.MaxLen = &val
			}
		case model.ValidationRulePattern:
			if expr := v.Params["pattern"]; expr != "" {
				if re, err := regexp.Compile(expr); err == nil {
					rules.Pattern = re
				}
			}
		}
	}
	return rules
}

// CheckString validates a text value.
func (r Rules) CheckString(value string) error {
	if r.Required && strings.TrimSpace(value) == "" {
		return errors.New("is required")
	}
	if value == "" {
		return nil
	}
	length := utf8.RuneCountInString(value)
	if r.MinLen != nil && length < *r.MinLen {
		return fmt.Errorf("must be at least %d characters", *r.MinLen)
	}
	if r.MaxLen != nil && length > *r.MaxLen {
		return fmt.Errorf("must be at most %d characters", *r.MaxLen)
	}
	if r.Pattern != nil && !r.Pattern.MatchString(value) {
		return errors.New("does not match required pattern")
	}
	return nil
}

// CheckNumber validates a parsed numeric value.
func (r Rules) CheckNumber(value any) error {
	var v float64
	switch n := value.(type) {
	case int64:
		v = float64(n)
	case float64:
		v = n
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
	if r.Min != nil && v < *r.Min {
		return fmt.Errorf("must be at least %v", *r.Min)
	}
	if r.Max != nil && v > *r.Max {
		return fmt.Errorf("must be at most %v", *r.Max)
	}
	return nil
}

// CheckArray validates the number of entries in a sequence.
func (r Rules) CheckArray(length int) error {
	if r.Required && length == 0 {
		return errors.New("is required")
	}
	if r.MinLen != nil && length < *r.MinLen {
		return fmt.Errorf("requires at least %d entries", *r.MinLen)
	}
	if r.MaxLen != nil && length > *r.MaxLen {
		return fmt.Errorf("allows at most %d entries", *r.MaxLen)
	}
	return nil
}

// ParseNumber parses form text into the canonical numeric representation for
// the field type. Surrounding whitespace is ignored.
func ParseNumber(raw string, integer bool) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if integer {
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err == nil {
			return n, nil
		}
		f, ferr := strconv.ParseFloat(trimmed, 64)
		if ferr == nil && f == float64(int64(f)) {
			return int64(f), nil
		}
		return nil, err
	}
	return strconv.ParseFloat(trimmed, 64)
}

func parseFloat(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(raw, 64)
	return val, err == nil
}

func parseInt(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	return val, err == nil
}
