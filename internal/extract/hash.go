package extract

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// contentHash returns the hex BLAKE3 digest of s, used for --full
// symbol output (spec §3 Symbol.hash) and shared with the artifact
// cache's content-addressing scheme.
func contentHash(s string) string {
	sum := blake3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
