package constants

// Executor type aliases.
const (
	ExecutorShell = "shell"
	ExecutorHTTP  = "http"
)

// Approver type aliases.
const (
	ApproverHTTP   = "http"
	ApproverShell  = "shell"
	ApproverLimits = "limits"
)

// Idempotency cache key strategies.
const (
	CacheKeyStrategyAuto          = "auto"
	CacheKeyStrategyCorrelationID = "correlation_id"
	CacheKeyStrategyArgumentsHash = "arguments_hash"
)

// MCP transports.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Response formats accepted in the response_format argument.
const (
	ResponseFormatJSON     = "json"
	ResponseFormatMarkdown = "markdown"
)
