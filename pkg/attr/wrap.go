package attr

import (
	"errors"

	"github.com/backkem/easyconnect/pkg/crypto"
)

// Errors for Wrapped Data handling.
var (
	ErrNoWrappedData = errors.New("attr: no wrapped data attribute")
)

// Wrap encrypts a serialized inner attribute sequence with AES-SIV and
// returns it as an outer Wrapped Data attribute (value layout:
// ciphertext || 16-byte SIV).
//
// ad0 and ad1 are the associated data, typically the frame header and the
// preceding cleartext attributes. Either may be nil, shortening the
// associated-data vector; a nil ad0 with a non-nil ad1 authenticates ad1
// as the only component.
func Wrap(key, ad0, ad1, inner []byte) ([]byte, error) {
	siv, err := crypto.NewAESSIV(key)
	if err != nil {
		return nil, err
	}

	sealed, err := siv.Seal(inner, adVector(ad0, ad1)...)
	if err != nil {
		return nil, err
	}

	var b Builder
	b.Add(TypeWrappedData, sealed)
	return b.Bytes()
}

// Unwrap locates the Wrapped Data attribute in buf, authenticates it under
// the same associated data passed to Wrap, and returns the decrypted inner
// attribute sequence. The caller owns the plaintext and should zeroize it
// once the inner attributes have been consumed.
func Unwrap(key, ad0, ad1, buf []byte) ([]byte, error) {
	var wrapped []byte
	found := false
	it := NewIterator(buf)
	for it.Next() {
		if it.Type() == TypeWrappedData {
			wrapped = it.Value()
			found = true
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoWrappedData
	}

	siv, err := crypto.NewAESSIV(key)
	if err != nil {
		return nil, err
	}
	return siv.Open(wrapped, adVector(ad0, ad1)...)
}

func adVector(ad0, ad1 []byte) [][]byte {
	var ads [][]byte
	if ad0 != nil {
		ads = append(ads, ad0)
	}
	if ad1 != nil {
		ads = append(ads, ad1)
	}
	return ads
}
