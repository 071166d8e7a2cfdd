package deduplication

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hasher turns the parts of a dedupe key into a fixed-width digest so raw
// email addresses are never held as map keys.
type Hasher struct {
	algorithm string
}

func NewHasher(algorithm string) *Hasher {
	return &Hasher{algorithm: strings.ToLower(algorithm)}
}

// ComputeHash hashes parts joined with "|". At least one part is required.
func (h *Hasher) ComputeHash(parts ...string) (string, error) {
	if len(parts) == 0 {
		return "", fmt.Errorf("no parts specified for hashing")
	}

	var builder strings.Builder
	for _, part := range parts {
		builder.WriteString(part)
		builder.WriteByte('|')
	}
	input := builder.String()

	switch h.algorithm {
	case "md5":
		sum := md5.Sum([]byte(input))
		return hex.EncodeToString(sum[:]), nil
	default:
		sum := sha256.Sum256([]byte(input))
		return hex.EncodeToString(sum[:]), nil
	}
}
