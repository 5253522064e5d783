package contract

import "errors"

var (
	ErrModelInvoke           = errors.New("model invoke failed")
	ErrSchemaViolation       = errors.New("model response violates schema")
	ErrPromptMissing         = errors.New("required prompt is missing")
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("record not found")
	ErrUnknownTool           = errors.New("unknown tool")
	ErrInvalidDomain         = errors.New("invalid domain")
	ErrCompletionUnavailable = errors.New("completion capability unavailable")
)
