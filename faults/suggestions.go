package faults

import (
	"sync"
)

// SuggestionRegistry stores known failure modes and recovery suggestions per
// tool type. Embedders register suggestions for (toolType, code) pairs at
// initialization time; the result reporter merges them into terminal faults
// so every user-visible failure carries actionable next steps.
//
// The registry uses a nested map, toolType -> code -> []string, for O(1)
// lookups. Registration replaces any previous suggestions for the same pair.
type SuggestionRegistry struct {
	mu       sync.RWMutex
	registry map[string]map[string][]string
}

// globalRegistry backs the package-level Register, SuggestionsFor, and
// Enrich functions.
var globalRegistry = &SuggestionRegistry{
	registry: make(map[string]map[string][]string),
}

// Register adds recovery suggestions for a tool type's fault code.
// Safe for concurrent use.
//
// Example:
//
//	faults.Register("video_analysis", faults.CodeTimeout,
//	    "reduce frame sampling rate to shorten analysis time",
//	    "split the input into shorter segments and analyze them separately",
//	)
func Register(toolType, code string, suggestions ...string) {
	globalRegistry.Register(toolType, code, suggestions...)
}

// SuggestionsFor returns the registered suggestions for a tool type's fault
// code, falling back to the generic "*" tool type when the specific one has
// nothing registered. Returns nil if neither has an entry.
func SuggestionsFor(toolType, code string) []string {
	return globalRegistry.SuggestionsFor(toolType, code)
}

// Enrich appends the suggestions registered for the tool type's fault code
// to the fault in place. Suggestions the fault already carries are kept
// and deduplicated against. The tool type is passed explicitly because a
// fault only records the tool name, and registrations are keyed by type.
func Enrich(toolType string, f *Fault) *Fault {
	return globalRegistry.Enrich(toolType, f)
}

// Register adds suggestions for a (toolType, code) pair, replacing any
// previous registration for the same pair.
func (r *SuggestionRegistry) Register(toolType, code string, suggestions ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes, ok := r.registry[toolType]
	if !ok {
		codes = make(map[string][]string)
		r.registry[toolType] = codes
	}
	codes[code] = append([]string(nil), suggestions...)
}

// SuggestionsFor looks up suggestions for the pair, falling back to the
// generic "*" tool type.
func (r *SuggestionRegistry) SuggestionsFor(toolType, code string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if codes, ok := r.registry[toolType]; ok {
		if s, ok := codes[code]; ok {
			return append([]string(nil), s...)
		}
	}
	if codes, ok := r.registry["*"]; ok {
		if s, ok := codes[code]; ok {
			return append([]string(nil), s...)
		}
	}
	return nil
}

// Enrich appends the tool type's registered suggestions to the fault,
// skipping duplicates.
func (r *SuggestionRegistry) Enrich(toolType string, f *Fault) *Fault {
	if f == nil {
		return nil
	}

	seen := make(map[string]bool, len(f.Suggestions))
	for _, s := range f.Suggestions {
		seen[s] = true
	}
	for _, s := range r.SuggestionsFor(toolType, f.Code) {
		if !seen[s] {
			f.Suggestions = append(f.Suggestions, s)
			seen[s] = true
		}
	}
	return f
}
