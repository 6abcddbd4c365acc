package security

import (
	"strings"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/tool"
)

var sensitiveSubstrings = []string{
	"token",
	"password",
	"authorization",
	"apikey",
	"api_key",
	"access_key",
	"private_key",
	"credential",
	"passwd",
	"secret",
	"signature",
	"cookie",
	"jwt",
	"bearer",
	"passphrase",
}

var allowList = map[string]struct{}{
	"secret_name": {},
	"session_id":  {},
}

// Mask replaces redacted values.
const Mask = "***"

// RedactParams returns a plain copy of params with sensitive values masked.
// Nested objects are redacted recursively.
func RedactParams(params tool.Params) map[string]any {
	if params == nil {
		return nil
	}
	return redactMap(params.Any())
}

func redactMap(values map[string]any) map[string]any {
	redacted := make(map[string]any, len(values))
	for key, value := range values {
		if IsSensitiveKey(key) {
			redacted[key] = Mask
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			redacted[key] = redactMap(nested)
			continue
		}
		redacted[key] = value
	}
	return redacted
}

// IsSensitiveKey reports whether a parameter name looks like a credential.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(strings.TrimSpace(key))
	if _, ok := allowList[lower]; ok {
		return false
	}
	for _, part := range sensitiveSubstrings {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}
