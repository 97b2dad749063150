package identity

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// JobUID derives the stable posting identity from provider type, company slug
// and the provider-native job id. The provider and slug are part of the hashed
// input so equal native ids from different boards never collapse.
func JobUID(providerType, companySlug, providerJobID string) string {
	s := fmt.Sprintf("%s:%s:%s", providerType, companySlug, providerJobID)
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ContentHash digests the visible posting fields. Field order is fixed; a
// separator that cannot appear inside a field keeps the encoding unambiguous.
func ContentHash(fields ...string) string {
	h := sha256.New()
	for i, f := range fields {
		if i > 0 {
			h.Write([]byte{0x00})
		}
		h.Write([]byte(strings.TrimSpace(f)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint digests profile source material read from r.
func Fingerprint(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
