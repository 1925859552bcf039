package sqlite

import (
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

func toUnixNano(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func encodeJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode column")
	}
	return string(raw), nil
}

func decodeTags(raw string) ([]string, error) {
	tags := []string{}
	if raw == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, goerr.Wrap(err, "failed to decode tags", goerr.V("raw", raw))
	}
	return tags, nil
}

func decodeMetadata(raw string) (map[string]any, error) {
	metadata := map[string]any{}
	if raw == "" {
		return metadata, nil
	}
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, goerr.Wrap(err, "failed to decode metadata", goerr.V("raw", raw))
	}
	return metadata, nil
}
