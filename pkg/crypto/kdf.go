package crypto

import (
	"crypto/hmac"
	"encoding/binary"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDFKey derives length bytes with the full HKDF construction (RFC 5869):
// HKDF-Expand(HKDF-Extract(salt, ikm), info, length). A nil salt is treated
// as a hash-sized zero buffer, per the RFC.
func HKDFKey(newHash func() hash.Hash, ikm, salt, info []byte, length int) ([]byte, error) {
	reader := hkdf.New(newHash, ikm, salt, info)
	out := make([]byte, length)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}

// HKDFExtract performs the HKDF-Extract step, returning a hash-sized
// pseudorandom key. A nil salt is treated as a zero buffer.
func HKDFExtract(newHash func() hash.Hash, ikm, salt []byte) []byte {
	return hkdf.Extract(newHash, ikm, salt)
}

// HKDFExpand performs the HKDF-Expand step over an existing pseudorandom key.
func HKDFExpand(newHash func() hash.Hash, prk, info []byte, length int) ([]byte, error) {
	reader := hkdf.Expand(newHash, prk, info)
	out := make([]byte, length)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}

// PRFPlus derives outLen bytes with the 802.11 prf+ construction:
//
//	T(i) = HMAC(prk, LE16(i) || parts... || LE16(outLen in bits))
//
// with the counter starting at 1, concatenating T(1), T(2), ... and
// truncating to outLen.
func PRFPlus(newHash func() hash.Hash, prk []byte, outLen int, parts ...[]byte) []byte {
	var counter, lenBits [2]byte
	binary.LittleEndian.PutUint16(lenBits[:], uint16(outLen*8))

	out := make([]byte, 0, outLen)
	for i := uint16(1); len(out) < outLen; i++ {
		binary.LittleEndian.PutUint16(counter[:], i)
		m := hmac.New(newHash, prk)
		m.Write(counter[:])
		for _, p := range parts {
			m.Write(p)
		}
		m.Write(lenBits[:])
		out = m.Sum(out)
	}
	return out[:outLen]
}
