package util

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// GenerateRunID derives a short identifier for one execution of a stage.
func GenerateRunID(stage string, startedAt time.Time) string {
	hasher := sha256.New()
	hasher.Write([]byte(stage))
	hasher.Write([]byte(startedAt.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(hasher.Sum(nil))[:16] // first 16 chars are plenty for a run log
}
