package logging

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

const anonymizedBytes = 8

// IPAnonymizer turns client addresses into stable, non-reversible log tokens
type IPAnonymizer struct {
	key []byte
}

// NewIPAnonymizer creates an anonymizer keyed by salt. An empty salt still hashes.
func NewIPAnonymizer(salt string) *IPAnonymizer {
	a := &IPAnonymizer{}
	if salt != "" {
		sum := blake2b.Sum256([]byte(salt))
		a.key = sum[:]
	}
	return a
}

// Anonymize returns a 16 hex character digest of ip
func (a *IPAnonymizer) Anonymize(ip string) string {
	if ip == "" {
		return ""
	}
	var key []byte
	if a != nil {
		key = a.key
	}
	h, err := blake2b.New(anonymizedBytes, key)
	if err != nil {
		// key is always 32 bytes or empty
		return ""
	}
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}

// AnonymizeIP is a convenience wrapper around a one-off IPAnonymizer
func AnonymizeIP(ip, salt string) string {
	return NewIPAnonymizer(salt).Anonymize(ip)
}
