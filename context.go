package armature

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/armature-ai/armature/fallback"
	"github.com/armature-ai/armature/tool"
)

// executionContext is the per-invocation working state. It is exclusively
// owned by one Execute call and never shared across executions, so none of
// its fields need synchronization.
type executionContext struct {
	id       string
	tool     *tool.Tool
	params   map[string]any
	attempt  int
	warnings []string
	started  time.Time
	deadline time.Time
}

func newExecutionContext(t *tool.Tool, started time.Time, deadline time.Time) *executionContext {
	return &executionContext{
		id:       uuid.NewString(),
		tool:     t,
		started:  started,
		deadline: deadline,
	}
}

// warnf appends a formatted warning, preserving order.
func (ec *executionContext) warnf(format string, args ...any) {
	ec.warnings = append(ec.warnings, fmt.Sprintf(format, args...))
}

// invocation builds the read-only view fallback strategies receive.
func (ec *executionContext) invocation() *fallback.Invocation {
	return &fallback.Invocation{
		ExecutionID: ec.id,
		Tool:        ec.tool.Name(),
		ToolType:    ec.tool.Type(),
		Params:      ec.params,
		Attempt:     ec.attempt,
		Deadline:    ec.deadline,
	}
}
