package repattribution

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"loan-intake/pkg/registry"
)

// Signer computes hex HMAC-SHA256 tags over normalized rep codes.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

func (s *Signer) Sign(code string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(registry.NormalizeCode(code)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time. Malformed hex never verifies.
func (s *Signer) Verify(code, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}
	want, _ := hex.DecodeString(s.Sign(code))
	return hmac.Equal(got, want)
}
