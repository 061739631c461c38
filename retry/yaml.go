package retry

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/armature-ai/armature/faults"
)

// UnmarshalYAML decodes a policy, accepting delays in time.ParseDuration
// syntax ("100ms", "10s"). Absent keys keep the values already present in
// the receiver, so decoding over DefaultPolicy() merges instead of
// resetting.
func (p *Policy) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		MaxAttempts         *int              `yaml:"max_attempts"`
		Strategy            *Strategy         `yaml:"strategy"`
		InitialDelay        string            `yaml:"initial_delay"`
		MaxDelay            string            `yaml:"max_delay"`
		RetryableCategories []faults.Category `yaml:"retryable_categories"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.MaxAttempts != nil {
		p.MaxAttempts = *raw.MaxAttempts
	}
	if raw.Strategy != nil {
		p.Strategy = *raw.Strategy
	}
	if raw.InitialDelay != "" {
		d, err := time.ParseDuration(raw.InitialDelay)
		if err != nil {
			return fmt.Errorf("invalid initial_delay %q: %w", raw.InitialDelay, err)
		}
		p.InitialDelay = d
	}
	if raw.MaxDelay != "" {
		d, err := time.ParseDuration(raw.MaxDelay)
		if err != nil {
			return fmt.Errorf("invalid max_delay %q: %w", raw.MaxDelay, err)
		}
		p.MaxDelay = d
	}
	if raw.RetryableCategories != nil {
		p.RetryableCategories = raw.RetryableCategories
	}
	return nil
}
