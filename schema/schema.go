package schema

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/armature-ai/armature/faults"
)

// FieldType names the expected Go representation of a parameter.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeFloat  FieldType = "float"
	TypeBool   FieldType = "bool"
	TypeList   FieldType = "list"
	TypeMap    FieldType = "map"
)

// Field declares a single parameter.
type Field struct {
	// Type is the expected type of the parameter value.
	Type FieldType `yaml:"type" json:"type"`

	// Required marks the parameter as mandatory.
	Required bool `yaml:"required,omitempty" json:"required,omitempty"`

	// Default is filled in when the parameter is absent. Only meaningful
	// for optional fields.
	Default any `yaml:"default,omitempty" json:"default,omitempty"`

	// Constraint holds the optional per-field constraint.
	Constraint *Constraint `yaml:"constraint,omitempty" json:"constraint,omitempty"`

	// Description is a human-readable explanation of the parameter.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Rule is a cross-field relationship expressed as a CEL expression over the
// `params` map. The expression must evaluate to a boolean; false is a
// violation.
//
// Example:
//
//	Rule{
//	    Name:    "high_quality_duration_cap",
//	    Expr:    `params.quality != "high" || params.max_duration <= 3600`,
//	    Message: "max_duration must be at most 3600 when quality is high",
//	}
type Rule struct {
	Name    string `yaml:"name" json:"name"`
	Expr    string `yaml:"expr" json:"expr"`
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
}

// Spec is the declarative, serializable form of a tool's parameter schema.
type Spec struct {
	Fields map[string]Field `yaml:"fields" json:"fields"`
	Rules  []Rule           `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// Schema is a compiled, immutable Spec. Regex patterns and CEL rule
// programs are compiled exactly once at Compile time.
type Schema struct {
	fields   map[string]Field
	required []string
	patterns map[string]*regexp.Regexp
	rules    []compiledRule
}

// Compile validates a Spec and compiles it into a Schema.
// It returns an error when a constraint pattern or a rule expression does
// not compile, or when a default value does not match its field's declared
// type.
func Compile(spec Spec) (*Schema, error) {
	s := &Schema{
		fields:   make(map[string]Field, len(spec.Fields)),
		patterns: make(map[string]*regexp.Regexp),
	}

	for name, field := range spec.Fields {
		if field.Type == "" {
			return nil, fmt.Errorf("field %s: type is required", name)
		}
		if field.Default != nil {
			if err := checkType(field.Type, field.Default); err != nil {
				return nil, fmt.Errorf("field %s: default value: %w", name, err)
			}
		}
		if field.Constraint != nil && field.Constraint.Pattern != "" {
			re, err := regexp.Compile(field.Constraint.Pattern)
			if err != nil {
				return nil, fmt.Errorf("field %s: invalid pattern: %w", name, err)
			}
			s.patterns[name] = re
		}
		s.fields[name] = field
		if field.Required {
			s.required = append(s.required, name)
		}
	}
	// Deterministic ordering for violation reports.
	sort.Strings(s.required)

	rules, err := compileRules(spec.Rules)
	if err != nil {
		return nil, err
	}
	s.rules = rules

	return s, nil
}

// MustCompile is like Compile but panics on error. Intended for schemas
// defined as package-level literals.
func MustCompile(spec Spec) *Schema {
	s, err := Compile(spec)
	if err != nil {
		panic(err)
	}
	return s
}

// Required returns the names of the required fields in sorted order.
func (s *Schema) Required() []string {
	return append([]string(nil), s.required...)
}

// Violation records a single validation failure.
type Violation struct {
	// Field is the offending parameter name, or the rule name for
	// cross-field violations.
	Field string `json:"field"`

	// Kind is one of "missing", "type", "constraint", or "rule".
	Kind string `json:"kind"`

	// Message describes the failure.
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// Validate checks params against the schema and returns a validated copy
// with defaults filled in for absent optional fields.
//
// All violations are aggregated into a single *faults.Fault with category
// validation: every missing required field, every type mismatch, every
// constraint violation, and every failed cross-field rule. The input map is
// never mutated.
func (s *Schema) Validate(tool string, params map[string]any) (map[string]any, *faults.Fault) {
	var violations []Violation
	var missing []string

	for _, name := range s.required {
		if _, ok := params[name]; !ok {
			missing = append(missing, name)
			violations = append(violations, Violation{
				Field:   name,
				Kind:    "missing",
				Message: "required parameter is missing",
			})
		}
	}

	// Stable iteration over present fields so violation order is
	// reproducible across runs.
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field, declared := s.fields[name]
		if !declared {
			continue
		}
		value := params[name]

		if err := checkType(field.Type, value); err != nil {
			violations = append(violations, Violation{Field: name, Kind: "type", Message: err.Error()})
			continue
		}
		if field.Constraint != nil {
			for _, err := range field.Constraint.check(field.Type, value, s.patterns[name]) {
				violations = append(violations, Violation{Field: name, Kind: "constraint", Message: err.Error()})
			}
		}
	}

	// Defaults are applied on a copy so cross-field rules see the
	// parameters the tool would actually run with.
	filled := make(map[string]any, len(s.fields))
	for k, v := range params {
		filled[k] = v
	}
	for name, field := range s.fields {
		if _, ok := filled[name]; !ok && field.Default != nil {
			filled[name] = field.Default
		}
	}

	// Cross-field rules still run when only constraints failed: the values
	// are present and type-correct, so the expressions evaluate and the
	// caller sees every violation in one pass. Missing or mistyped fields
	// make the expressions meaningless, so rules are skipped then.
	blocked := len(missing) > 0
	for _, v := range violations {
		if v.Kind == "type" {
			blocked = true
		}
	}
	if !blocked {
		for _, rule := range s.rules {
			ok, err := rule.eval(filled)
			if err != nil {
				violations = append(violations, Violation{
					Field:   rule.name,
					Kind:    "rule",
					Message: fmt.Sprintf("rule evaluation failed: %v", err),
				})
				continue
			}
			if !ok {
				violations = append(violations, Violation{Field: rule.name, Kind: "rule", Message: rule.message})
			}
		}
	}

	if len(violations) > 0 {
		return nil, violationFault(tool, missing, violations)
	}
	return filled, nil
}

// violationFault aggregates violations into a single validation fault.
// The fault code reflects the most fundamental failure present: missing
// fields over type mismatches over constraint violations.
func violationFault(tool string, missing []string, violations []Violation) *faults.Fault {
	code := faults.CodeConstraintViolation
	for _, v := range violations {
		if v.Kind == "type" {
			code = faults.CodeTypeMismatch
		}
	}
	if len(missing) > 0 {
		code = faults.CodeMissingField
	}

	details := map[string]any{"violations": violations}
	if len(missing) > 0 {
		details["missing_fields"] = missing
	}

	f := faults.New(tool, code, fmt.Sprintf("parameter validation failed: %d violation(s)", len(violations))).
		WithDetails(details)
	for _, v := range violations {
		f = f.WithSuggestions(v.String())
	}
	return f
}
