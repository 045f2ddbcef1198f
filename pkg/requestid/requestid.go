package requestid

import (
	"strings"

	"github.com/google/uuid"
)

const DefaultHeaderKey = "X-Request-Id"

// ResolveHeaderKey returns the provided header key when non-empty,
// otherwise falls back to the default request id header key.
func ResolveHeaderKey(headerKey string) string {
	if v := strings.TrimSpace(headerKey); v != "" {
		return v
	}
	return DefaultHeaderKey
}

// Gen returns a random (version 4) UUID without dashes.
func Gen() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Sanitize returns the incoming id when it is usable as a log field, or "".
// Ids longer than 128 bytes or containing control characters or spaces are dropped.
func Sanitize(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > 128 {
		return ""
	}
	for _, r := range id {
		if r <= ' ' || r == 0x7f {
			return ""
		}
	}
	return id
}
