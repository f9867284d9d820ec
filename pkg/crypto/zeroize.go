package crypto

import "math/big"

// Zeroize overwrites a byte slice holding secret material with zeros.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// wipeBig clears the backing words of a big.Int.
func wipeBig(x *big.Int) {
	words := x.Bits()
	for i := range words {
		words[i] = 0
	}
	x.SetInt64(0)
}
