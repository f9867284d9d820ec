// AES-SIV deterministic authenticated encryption (RFC 5297).
// Easy Connect wraps protocol attributes in AES-SIV with the session key
// split into a CMAC half and a CTR half. The wire layout carried inside a
// Wrapped Data attribute is ciphertext || 16-byte synthetic IV.

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"errors"

	"github.com/aead/cmac"
)

// SIVTagSize is the synthetic IV length in bytes.
const SIVTagSize = 16

// Errors for AES-SIV operations.
var (
	ErrSIVInvalidKeySize     = errors.New("aessiv: key must be 32, 48 or 64 bytes")
	ErrSIVTooManyAssociated  = errors.New("aessiv: too many associated data items")
	ErrSIVCiphertextTooShort = errors.New("aessiv: ciphertext shorter than the SIV tag")
	ErrSIVAuthFailed         = errors.New("aessiv: message authentication failed")
)

// AESSIV is an AES-SIV instance. The key is split per RFC 5297: the first
// half keys S2V (CMAC), the second half keys the CTR encryption.
type AESSIV struct {
	macBlock cipher.Block
	ctrBlock cipher.Block
}

// NewAESSIV creates an AES-SIV cipher. Valid key sizes are 32, 48 and 64
// bytes, giving AES-128, AES-192 and AES-256 internally.
func NewAESSIV(key []byte) (*AESSIV, error) {
	switch len(key) {
	case 32, 48, 64:
	default:
		return nil, ErrSIVInvalidKeySize
	}

	half := len(key) / 2
	macBlock, err := aes.NewCipher(key[:half])
	if err != nil {
		return nil, err
	}
	ctrBlock, err := aes.NewCipher(key[half:])
	if err != nil {
		return nil, err
	}

	return &AESSIV{macBlock: macBlock, ctrBlock: ctrBlock}, nil
}

// Seal encrypts plaintext deterministically under the associated data
// vector and returns ciphertext || 16-byte SIV.
//
// RFC 5297 limits the S2V vector to 127 components; the protocol never uses
// more than two pieces of associated data plus the plaintext.
func (c *AESSIV) Seal(plaintext []byte, associated ...[]byte) ([]byte, error) {
	if len(associated) > 126 {
		return nil, ErrSIVTooManyAssociated
	}

	v, err := c.s2v(associated, plaintext)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(plaintext)+SIVTagSize)
	c.ctr(v, out[:len(plaintext)], plaintext)
	copy(out[len(plaintext):], v)
	return out, nil
}

// Open authenticates and decrypts data produced by Seal. The plaintext is
// only returned when the recomputed SIV matches; on failure the partial
// plaintext is wiped before returning.
func (c *AESSIV) Open(data []byte, associated ...[]byte) ([]byte, error) {
	if len(data) < SIVTagSize {
		return nil, ErrSIVCiphertextTooShort
	}
	if len(associated) > 126 {
		return nil, ErrSIVTooManyAssociated
	}

	ciphertext := data[:len(data)-SIVTagSize]
	v := data[len(data)-SIVTagSize:]

	plaintext := make([]byte, len(ciphertext))
	c.ctr(v, plaintext, ciphertext)

	expected, err := c.s2v(associated, plaintext)
	if err != nil {
		Zeroize(plaintext)
		return nil, err
	}
	if subtle.ConstantTimeCompare(v, expected) != 1 {
		Zeroize(plaintext)
		return nil, ErrSIVAuthFailed
	}
	return plaintext, nil
}

// s2v computes the synthetic IV over the associated data vector and the
// plaintext (RFC 5297 Section 2.4).
func (c *AESSIV) s2v(associated [][]byte, plaintext []byte) ([]byte, error) {
	zero := make([]byte, aes.BlockSize)
	d, err := cmac.Sum(zero, c.macBlock, aes.BlockSize)
	if err != nil {
		return nil, err
	}

	for _, ad := range associated {
		m, err := cmac.Sum(ad, c.macBlock, aes.BlockSize)
		if err != nil {
			return nil, err
		}
		dbl(d)
		xorBytes(d, m)
	}

	var t []byte
	if len(plaintext) >= aes.BlockSize {
		// T = S_n xorend D
		t = make([]byte, len(plaintext))
		copy(t, plaintext)
		xorBytes(t[len(t)-aes.BlockSize:], d)
	} else {
		// T = dbl(D) xor pad(S_n)
		dbl(d)
		t = make([]byte, aes.BlockSize)
		copy(t, plaintext)
		t[len(plaintext)] = 0x80
		xorBytes(t, d)
	}

	return cmac.Sum(t, c.macBlock, aes.BlockSize)
}

// ctr runs AES-CTR keyed by the second key half, with the SIV as the
// initial counter after clearing the two reserved bits (RFC 5297
// Section 2.5).
func (c *AESSIV) ctr(v []byte, dst, src []byte) {
	q := make([]byte, aes.BlockSize)
	copy(q, v)
	q[8] &= 0x7f
	q[12] &= 0x7f
	cipher.NewCTR(c.ctrBlock, q).XORKeyStream(dst, src)
}

// dbl doubles a block in GF(2^128) in place.
func dbl(b []byte) {
	carry := b[0] >> 7
	for i := 0; i < len(b)-1; i++ {
		b[i] = b[i]<<1 | b[i+1]>>7
	}
	b[len(b)-1] <<= 1
	if carry != 0 {
		b[len(b)-1] ^= 0x87
	}
}

func xorBytes(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}
