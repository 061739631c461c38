package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armature-ai/armature/faults"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func videoSpec() Spec {
	return Spec{
		Fields: map[string]Field{
			"video_path":    {Type: TypeString, Required: true},
			"analysis_type": {Type: TypeString, Required: true, Constraint: &Constraint{Enum: []any{"full", "keyframes", "audio_track"}}},
			"max_duration":  {Type: TypeInt, Default: 600, Constraint: &Constraint{Min: fp(1), Max: fp(7200)}},
			"quality":       {Type: TypeString, Default: "standard", Constraint: &Constraint{Enum: []any{"low", "standard", "high"}}},
			"tags":          {Type: TypeList, Constraint: &Constraint{ElemType: TypeString, MaxLen: ip(5)}},
		},
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{
			name: "missing type",
			spec: Spec{Fields: map[string]Field{"a": {}}},
		},
		{
			name: "invalid pattern",
			spec: Spec{Fields: map[string]Field{"a": {Type: TypeString, Constraint: &Constraint{Pattern: "("}}}},
		},
		{
			name: "default violates type",
			spec: Spec{Fields: map[string]Field{"a": {Type: TypeInt, Default: "ten"}}},
		},
		{
			name: "rule without name",
			spec: Spec{Rules: []Rule{{Expr: "true"}}},
		},
		{
			name: "rule does not compile",
			spec: Spec{Rules: []Rule{{Name: "broken", Expr: "params."}}},
		},
		{
			name: "rule not boolean",
			spec: Spec{Rules: []Rule{{Name: "numeric", Expr: "1 + 1"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.spec)
			assert.Error(t, err)
		})
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	s := MustCompile(videoSpec())

	_, fault := s.Validate("video_analysis", map[string]any{"video_path": "a.mp4"})
	require.NotNil(t, fault)

	assert.Equal(t, faults.CategoryValidation, fault.Category)
	assert.Equal(t, faults.CodeMissingField, fault.Code)
	assert.Equal(t, []string{"analysis_type"}, fault.Details["missing_fields"])
}

func TestValidate_AllMissingFieldsListed(t *testing.T) {
	s := MustCompile(videoSpec())

	_, fault := s.Validate("video_analysis", map[string]any{})
	require.NotNil(t, fault)

	// Every missing required field is reported, not just the first.
	assert.Equal(t, []string{"analysis_type", "video_path"}, fault.Details["missing_fields"])
}

func TestValidate_TypeMismatch(t *testing.T) {
	s := MustCompile(videoSpec())

	_, fault := s.Validate("video_analysis", map[string]any{
		"video_path":    42,
		"analysis_type": "full",
	})
	require.NotNil(t, fault)

	assert.Equal(t, faults.CodeTypeMismatch, fault.Code)
	violations := fault.Details["violations"].([]Violation)
	require.Len(t, violations, 1)
	assert.Equal(t, "video_path", violations[0].Field)
	assert.Contains(t, violations[0].Message, "expected string")
	assert.Contains(t, violations[0].Message, "int")
}

func TestValidate_AggregatesAllViolations(t *testing.T) {
	s := MustCompile(videoSpec())

	_, fault := s.Validate("video_analysis", map[string]any{
		"analysis_type": "everything",         // not in enum
		"max_duration":  9000,                 // above max
		"tags":          []any{"a", 1, "b"},   // bad element type
		// video_path missing
	})
	require.NotNil(t, fault)

	// Missing fields dominate the code choice.
	assert.Equal(t, faults.CodeMissingField, fault.Code)

	violations := fault.Details["violations"].([]Violation)
	fields := make(map[string]bool)
	for _, v := range violations {
		fields[v.Field] = true
	}
	assert.True(t, fields["video_path"])
	assert.True(t, fields["analysis_type"])
	assert.True(t, fields["max_duration"])
	assert.True(t, fields["tags"])
}

func TestValidate_AppliesDefaults(t *testing.T) {
	s := MustCompile(videoSpec())

	in := map[string]any{"video_path": "a.mp4", "analysis_type": "full"}
	out, fault := s.Validate("video_analysis", in)
	require.Nil(t, fault)

	assert.Equal(t, 600, out["max_duration"])
	assert.Equal(t, "standard", out["quality"])
	assert.Equal(t, "a.mp4", out["video_path"])

	// The input map is never mutated.
	assert.NotContains(t, in, "max_duration")
	assert.NotContains(t, in, "quality")
}

func TestValidate_NumericCoercion(t *testing.T) {
	s := MustCompile(Spec{Fields: map[string]Field{
		"count": {Type: TypeInt},
		"ratio": {Type: TypeFloat},
	}})

	// JSON-decoded integers arrive as float64.
	out, fault := s.Validate("tool", map[string]any{"count": float64(3), "ratio": 7})
	require.Nil(t, fault)
	assert.Equal(t, float64(3), out["count"])

	_, fault = s.Validate("tool", map[string]any{"count": 3.5})
	require.NotNil(t, fault)
	assert.Equal(t, faults.CodeTypeMismatch, fault.Code)
}

func TestValidate_StringConstraints(t *testing.T) {
	s := MustCompile(Spec{Fields: map[string]Field{
		"slug": {Type: TypeString, Constraint: &Constraint{Pattern: `^[a-z0-9-]+$`, MinLen: ip(3), MaxLen: ip(10)}},
	}})

	_, fault := s.Validate("tool", map[string]any{"slug": "ok-slug"})
	assert.Nil(t, fault)

	_, fault = s.Validate("tool", map[string]any{"slug": "NO"})
	require.NotNil(t, fault)
	violations := fault.Details["violations"].([]Violation)
	// Both the pattern and the length violation are reported.
	assert.Len(t, violations, 2)
}

func TestValidate_FileExists(t *testing.T) {
	s := MustCompile(Spec{Fields: map[string]Field{
		"path": {Type: TypeString, Required: true, Constraint: &Constraint{FileExists: true}},
	}})

	dir := t.TempDir()
	existing := filepath.Join(dir, "input.wav")
	require.NoError(t, os.WriteFile(existing, []byte("data"), 0o644))

	_, fault := s.Validate("audio_cleanup", map[string]any{"path": existing})
	assert.Nil(t, fault)

	_, fault = s.Validate("audio_cleanup", map[string]any{"path": filepath.Join(dir, "absent.wav")})
	require.NotNil(t, fault)
	assert.Equal(t, faults.CodeConstraintViolation, fault.Code)
}

func TestValidate_UndeclaredFieldsPass(t *testing.T) {
	s := MustCompile(Spec{Fields: map[string]Field{
		"known": {Type: TypeString},
	}})

	out, fault := s.Validate("tool", map[string]any{"known": "x", "extra": 99})
	require.Nil(t, fault)
	assert.Equal(t, 99, out["extra"])
}

func TestValidate_RulesRunAlongsideConstraintViolations(t *testing.T) {
	s := MustCompile(Spec{
		Fields: map[string]Field{
			"bitrate": {Type: TypeInt, Constraint: &Constraint{Min: fp(1)}},
			"quality": {Type: TypeString, Default: "standard"},
		},
		Rules: []Rule{{
			Name:    "high_quality_bitrate_floor",
			Expr:    `params.quality != "high" || params.bitrate >= 1000`,
			Message: "bitrate must be at least 1000 when quality is high",
		}},
	})

	// The value is present and type-correct, so the rule can still be
	// judged; the caller sees both violations in one pass.
	_, fault := s.Validate("video_encode", map[string]any{"bitrate": 0, "quality": "high"})
	require.NotNil(t, fault)

	violations := fault.Details["violations"].([]Violation)
	kinds := make(map[string]int)
	for _, v := range violations {
		kinds[v.Kind]++
	}
	assert.Equal(t, 1, kinds["constraint"])
	assert.Equal(t, 1, kinds["rule"])
}

func TestRequired_Sorted(t *testing.T) {
	s := MustCompile(videoSpec())
	assert.Equal(t, []string{"analysis_type", "video_path"}, s.Required())
}
