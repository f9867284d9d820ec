package crypto

import (
	"crypto/hmac"
	"hash"
)

// HMAC computes the HMAC of the concatenation of parts under key.
func HMAC(newHash func() hash.Hash, key []byte, parts ...[]byte) []byte {
	m := hmac.New(newHash, key)
	for _, p := range parts {
		m.Write(p)
	}
	return m.Sum(nil)
}

// HMACEqual compares two MACs in constant time.
// Use this instead of bytes.Equal when comparing authentication tags.
func HMACEqual(mac1, mac2 []byte) bool {
	return hmac.Equal(mac1, mac2)
}
