package runtime

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/constants"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/tool"
)

// buildCacheKey returns "tool:key" for the strategy, or "" when no key applies.
// auto uses a caller-provided correlation id and falls back to a params hash.
func buildCacheKey(toolName, correlationID string, providedID bool, params tool.Params, strategy string) (string, error) {
	keyStrategy := strings.ToLower(strings.TrimSpace(strategy))
	if keyStrategy == "" {
		keyStrategy = constants.CacheKeyStrategyAuto
	}

	var key string
	switch keyStrategy {
	case constants.CacheKeyStrategyCorrelationID:
		if providedID {
			key = correlationID
		}
	case constants.CacheKeyStrategyArgumentsHash:
		hash, err := hashParams(params)
		if err != nil {
			return "", err
		}
		key = hash
	case constants.CacheKeyStrategyAuto:
		if providedID && correlationID != "" {
			key = correlationID
			break
		}
		hash, err := hashParams(params)
		if err != nil {
			return "", err
		}
		key = hash
	default:
		return "", fmt.Errorf("unsupported cache key strategy: %s", strategy)
	}
	if strings.TrimSpace(key) == "" {
		return "", nil
	}
	return toolName + ":" + key, nil
}

func hashParams(params tool.Params) (string, error) {
	data, err := canonicalJSON(params.Any())
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalJSON encodes value with map keys sorted at every level.
func canonicalJSON(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return []byte("null"), nil
	case string:
		return []byte(strconv.Quote(v)), nil
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			data, err := canonicalJSON(item)
			if err != nil {
				return nil, err
			}
			buf.Write(data)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Quote(key))
			buf.WriteByte(':')
			data, err := canonicalJSON(v[key])
			if err != nil {
				return nil, err
			}
			buf.Write(data)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return json.Marshal(v)
	}
}
