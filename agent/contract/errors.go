package contract

import (
	"errors"

	mcpx "github.com/tanpawarit/chative-commerce-orchestrator/agent/mcp"
)

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
	ErrToolCall        = mcpx.ErrCallFailed
)
