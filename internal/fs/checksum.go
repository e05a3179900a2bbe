package fs

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// Sum returns the digest format used by Checksum for in-memory data.
func Sum(data []byte) string {
	return fmt.Sprintf("%x", xxh3.Hash128(data).Bytes())
}

func formatSum(u xxh3.Uint128) string {
	return fmt.Sprintf("%x", u.Bytes())
}
