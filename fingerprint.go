package mdlive

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

const fingerprintLen = 16

// Fingerprint returns a short stable hash of content, used to decide whether
// an already materialized node must be re-rendered.
func Fingerprint(content string) string {
	sum := blake3.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}
