package schema

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
)

// Constraint holds the optional per-field validation rules. Zero fields are
// not checked, so a Constraint may combine any subset.
type Constraint struct {
	// Min and Max bound numeric values (inclusive).
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`

	// Enum restricts the value to one of the listed alternatives.
	Enum []any `yaml:"enum,omitempty" json:"enum,omitempty"`

	// Pattern is a regular expression a string value must match.
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	// FileExists requires a string value to name an existing file.
	FileExists bool `yaml:"file_exists,omitempty" json:"file_exists,omitempty"`

	// ElemType restricts list element types.
	ElemType FieldType `yaml:"elem_type,omitempty" json:"elem_type,omitempty"`

	// MinLen and MaxLen bound string or list length.
	MinLen *int `yaml:"min_len,omitempty" json:"min_len,omitempty"`
	MaxLen *int `yaml:"max_len,omitempty" json:"max_len,omitempty"`
}

// checkType verifies a value matches the declared field type.
// Numeric coercion follows JSON/YAML decoding reality: integers may arrive
// as float64 and are accepted for int fields when they carry no fraction.
func checkType(t FieldType, value any) error {
	if value == nil {
		return fmt.Errorf("expected %s, got nil", t)
	}

	switch t {
	case TypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case TypeInt:
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		case float64:
			if v != float64(int64(v)) {
				return fmt.Errorf("expected int, got float with decimal: %v", v)
			}
		case float32:
			if float64(v) != float64(int64(v)) {
				return fmt.Errorf("expected int, got float with decimal: %v", v)
			}
		default:
			return fmt.Errorf("expected int, got %T", value)
		}
	case TypeFloat:
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		default:
			return fmt.Errorf("expected float, got %T", value)
		}
	case TypeBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
	case TypeList:
		k := reflect.ValueOf(value).Kind()
		if k != reflect.Slice && k != reflect.Array {
			return fmt.Errorf("expected list, got %T", value)
		}
	case TypeMap:
		if reflect.ValueOf(value).Kind() != reflect.Map {
			return fmt.Errorf("expected map, got %T", value)
		}
	default:
		return fmt.Errorf("unknown field type %q", t)
	}
	return nil
}

// check runs every configured constraint against a value already known to
// match the field type. It returns all failures, not just the first.
func (c *Constraint) check(t FieldType, value any, re *regexp.Regexp) []error {
	var errs []error

	if len(c.Enum) > 0 {
		found := false
		for _, alt := range c.Enum {
			if reflect.DeepEqual(value, alt) {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, fmt.Errorf("value %v is not one of the allowed values %v", value, c.Enum))
		}
	}

	if c.Min != nil || c.Max != nil {
		if num, ok := asFloat(value); ok {
			if c.Min != nil && num < *c.Min {
				errs = append(errs, fmt.Errorf("value %v is less than minimum %v", num, *c.Min))
			}
			if c.Max != nil && num > *c.Max {
				errs = append(errs, fmt.Errorf("value %v is greater than maximum %v", num, *c.Max))
			}
		}
	}

	if str, ok := value.(string); ok {
		if re != nil && !re.MatchString(str) {
			errs = append(errs, fmt.Errorf("value %q does not match pattern %s", str, c.Pattern))
		}
		if c.FileExists {
			if _, err := os.Stat(str); err != nil {
				errs = append(errs, fmt.Errorf("file %q does not exist", str))
			}
		}
		if c.MinLen != nil && len(str) < *c.MinLen {
			errs = append(errs, fmt.Errorf("length %d is less than minimum %d", len(str), *c.MinLen))
		}
		if c.MaxLen != nil && len(str) > *c.MaxLen {
			errs = append(errs, fmt.Errorf("length %d is greater than maximum %d", len(str), *c.MaxLen))
		}
	}

	if t == TypeList {
		v := reflect.ValueOf(value)
		if c.MinLen != nil && v.Len() < *c.MinLen {
			errs = append(errs, fmt.Errorf("list length %d is less than minimum %d", v.Len(), *c.MinLen))
		}
		if c.MaxLen != nil && v.Len() > *c.MaxLen {
			errs = append(errs, fmt.Errorf("list length %d is greater than maximum %d", v.Len(), *c.MaxLen))
		}
		if c.ElemType != "" {
			for i := 0; i < v.Len(); i++ {
				if err := checkType(c.ElemType, v.Index(i).Interface()); err != nil {
					errs = append(errs, fmt.Errorf("element %d: %v", i, err))
				}
			}
		}
	}

	return errs
}

// asFloat converts numeric values to float64 for range checks.
func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
