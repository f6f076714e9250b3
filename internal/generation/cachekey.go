// Package generation implements Component D's cache key and Component E's
// generation adapter.
package generation

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Bumping either version invalidates all prior cache entries.
const (
	PromptVersion = "v1"
	SchemaVersion = "v1"
)

// CacheKey computes the deterministic fingerprint of a generation request,
// per spec.md §4.4.
func CacheKey(topic string, count int, curve []string) string {
	normalizedTopic := strings.ToLower(strings.TrimSpace(topic))
	fingerprint := normalizedTopic + ":" + strconv.Itoa(count) + ":" + strings.Join(curve, "-")
	sum := md5.Sum([]byte(fingerprint))
	return fmt.Sprintf("quiz:%s:%s:%s", PromptVersion, SchemaVersion, hex.EncodeToString(sum[:])[:12])
}
