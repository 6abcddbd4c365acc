package tool

import "errors"

// Sentinel errors for the tool registry and parameter handling.
var (
	ErrNotFound          = errors.New("tool not found")
	ErrAlreadyExists     = errors.New("tool already registered")
	ErrEmptyName         = errors.New("tool name is empty")
	ErrNilTool           = errors.New("tool is nil")
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrUnsupportedValue  = errors.New("unsupported parameter value")
)
