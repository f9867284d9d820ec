// Package crypto provides the cryptographic primitives for Easy Connect
// (Wi-Fi Device Provisioning Protocol) bootstrapping and authentication.
//
// It wraps the NIST P-256 and P-384 groups behind a curve-tagged scalar and
// point API, selects the protocol hash by group size, and implements the
// key derivation and authenticated-encryption constructions the protocol
// builds on (HKDF, the 802.11 prf+ construction, AES-SIV).
package crypto

import (
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"io"
	"math/big"
)

// CurveID identifies one of the supported elliptic-curve groups.
type CurveID int

const (
	// P256 is NIST P-256 (secp256r1), 32-byte scalars, SHA-256.
	P256 CurveID = iota + 1

	// P384 is NIST P-384 (secp384r1), 48-byte scalars, SHA-384.
	P384
)

// Errors for curve, scalar and point operations.
var (
	ErrUnsupportedCurve = errors.New("crypto: unsupported curve")
	ErrCurveMismatch    = errors.New("crypto: operands belong to different curves")
	ErrInvalidScalar    = errors.New("crypto: scalar out of range [1, n-1]")
	ErrInvalidPoint     = errors.New("crypto: point is not on the curve")
	ErrPointAtInfinity  = errors.New("crypto: operation yields the point at infinity")
	ErrInvalidPointData = errors.New("crypto: malformed point encoding")
)

// ScalarSize returns the byte length of a scalar (and of each affine
// coordinate) on the curve.
func (c CurveID) ScalarSize() int {
	switch c {
	case P256:
		return 32
	case P384:
		return 48
	}
	return 0
}

// HashNew returns the constructor of the hash associated with the curve:
// SHA-256 for P-256 and SHA-384 for P-384.
func (c CurveID) HashNew() func() hash.Hash {
	switch c {
	case P256:
		return sha256.New
	case P384:
		return sha512.New384
	}
	return nil
}

// NonceSize returns the protocol nonce length for the curve (half the
// associated hash output).
func (c CurveID) NonceSize() int {
	return NonceLenForKeyLen(c.ScalarSize())
}

// String returns the curve name.
func (c CurveID) String() string {
	switch c {
	case P256:
		return "P-256"
	case P384:
		return "P-384"
	}
	return fmt.Sprintf("CurveID(%d)", int(c))
}

// Valid reports whether c names a supported curve.
func (c CurveID) Valid() bool {
	return c == P256 || c == P384
}

// CurveFromKeySize returns the curve whose scalar length is n bytes.
func CurveFromKeySize(n int) (CurveID, error) {
	switch n {
	case 32:
		return P256, nil
	case 48:
		return P384, nil
	}
	return 0, ErrUnsupportedCurve
}

func (c CurveID) curve() elliptic.Curve {
	switch c {
	case P256:
		return elliptic.P256()
	case P384:
		return elliptic.P384()
	}
	return nil
}

func (c CurveID) params() *elliptic.CurveParams {
	return c.curve().Params()
}

// Scalar is an integer in [1, n-1] on a specific curve. Scalars holding
// private key material should be wiped with Zeroize once released.
type Scalar struct {
	curve CurveID
	d     *big.Int
}

// NewScalar constructs a scalar from a fixed-width big-endian byte string.
// Zero and values >= the group order are rejected.
func NewScalar(c CurveID, b []byte) (*Scalar, error) {
	if !c.Valid() {
		return nil, ErrUnsupportedCurve
	}
	if len(b) != c.ScalarSize() {
		return nil, ErrInvalidScalar
	}
	d := new(big.Int).SetBytes(b)
	if d.Sign() == 0 || d.Cmp(c.params().N) >= 0 {
		return nil, ErrInvalidScalar
	}
	return &Scalar{curve: c, d: d}, nil
}

// NewScalarReduced constructs a scalar by reducing an arbitrary-length
// big-endian byte string modulo the group order. A zero residue is rejected.
func NewScalarReduced(c CurveID, b []byte) (*Scalar, error) {
	if !c.Valid() {
		return nil, ErrUnsupportedCurve
	}
	d := new(big.Int).SetBytes(b)
	d.Mod(d, c.params().N)
	if d.Sign() == 0 {
		return nil, ErrInvalidScalar
	}
	return &Scalar{curve: c, d: d}, nil
}

// GenerateScalar draws a uniform scalar in [1, n-1] from rnd.
// If rnd is nil, crypto/rand.Reader is used.
func GenerateScalar(c CurveID, rnd io.Reader) (*Scalar, error) {
	if !c.Valid() {
		return nil, ErrUnsupportedCurve
	}
	if rnd == nil {
		rnd = rand.Reader
	}
	nMinusOne := new(big.Int).Sub(c.params().N, big.NewInt(1))
	d, err := rand.Int(rnd, nMinusOne)
	if err != nil {
		return nil, err
	}
	d.Add(d, big.NewInt(1))
	return &Scalar{curve: c, d: d}, nil
}

// Curve returns the curve the scalar belongs to.
func (s *Scalar) Curve() CurveID {
	return s.curve
}

// Bytes returns the scalar as a fixed-width big-endian byte string.
func (s *Scalar) Bytes() []byte {
	out := make([]byte, s.curve.ScalarSize())
	s.d.FillBytes(out)
	return out
}

// AddModN returns (s + t) mod n. Both scalars must share a curve.
// A zero sum is rejected: it has no corresponding public point.
func (s *Scalar) AddModN(t *Scalar) (*Scalar, error) {
	if s.curve != t.curve {
		return nil, ErrCurveMismatch
	}
	sum := new(big.Int).Add(s.d, t.d)
	sum.Mod(sum, s.curve.params().N)
	if sum.Sign() == 0 {
		return nil, ErrInvalidScalar
	}
	return &Scalar{curve: s.curve, d: sum}, nil
}

// Zeroize wipes the scalar value. The scalar must not be used afterwards.
func (s *Scalar) Zeroize() {
	if s == nil || s.d == nil {
		return
	}
	wipeBig(s.d)
	s.d = new(big.Int)
}

// PointEncoding selects one of the wire shapes a curve point may take.
type PointEncoding int

const (
	// PointFull is the raw affine encoding x || y.
	PointFull PointEncoding = iota

	// PointCompliant is the x-only encoding; y is recovered
	// deterministically as the even square root.
	PointCompliant

	// PointCompressedEven is x-only with even y, the parity carried by an
	// external 0x02 tag byte.
	PointCompressedEven

	// PointCompressedOdd is x-only with odd y (external 0x03 tag byte).
	PointCompressedOdd

	// PointSEC1 is the self-describing SEC1 encoding: 0x02/0x03 || x or
	// 0x04 || x || y.
	PointSEC1
)

// Point is an element of the curve's prime-order subgroup in affine form.
// The point at infinity is never represented.
type Point struct {
	curve CurveID
	x, y  *big.Int
}

// NewPoint decodes a point from one of the supported wire shapes and
// verifies it lies on the curve.
func NewPoint(c CurveID, enc PointEncoding, data []byte) (*Point, error) {
	if !c.Valid() {
		return nil, ErrUnsupportedCurve
	}
	clen := c.ScalarSize()
	switch enc {
	case PointFull:
		if len(data) != 2*clen {
			return nil, ErrInvalidPointData
		}
		x := new(big.Int).SetBytes(data[:clen])
		y := new(big.Int).SetBytes(data[clen:])
		return newPointChecked(c, x, y)
	case PointCompliant, PointCompressedEven, PointCompressedOdd:
		if len(data) != clen {
			return nil, ErrInvalidPointData
		}
		tag := byte(0x02)
		if enc == PointCompressedOdd {
			tag = 0x03
		}
		return decodeCompressed(c, tag, data)
	case PointSEC1:
		switch {
		case len(data) == 1+clen && (data[0] == 0x02 || data[0] == 0x03):
			return decodeCompressed(c, data[0], data[1:])
		case len(data) == 1+2*clen && data[0] == 0x04:
			x := new(big.Int).SetBytes(data[1 : 1+clen])
			y := new(big.Int).SetBytes(data[1+clen:])
			return newPointChecked(c, x, y)
		}
		return nil, ErrInvalidPointData
	}
	return nil, ErrInvalidPointData
}

func decodeCompressed(c CurveID, tag byte, x []byte) (*Point, error) {
	sec1 := make([]byte, 1+len(x))
	sec1[0] = tag
	copy(sec1[1:], x)
	px, py := elliptic.UnmarshalCompressed(c.curve(), sec1)
	if px == nil {
		return nil, ErrInvalidPointData
	}
	return &Point{curve: c, x: px, y: py}, nil
}

func newPointChecked(c CurveID, x, y *big.Int) (*Point, error) {
	if x.Sign() == 0 && y.Sign() == 0 {
		return nil, ErrPointAtInfinity
	}
	if !c.curve().IsOnCurve(x, y) {
		return nil, ErrInvalidPoint
	}
	return &Point{curve: c, x: x, y: y}, nil
}

// Curve returns the curve the point belongs to.
func (p *Point) Curve() CurveID {
	return p.curve
}

// X returns the affine x-coordinate as a fixed-width big-endian byte string.
func (p *Point) X() []byte {
	out := make([]byte, p.curve.ScalarSize())
	p.x.FillBytes(out)
	return out
}

// Y returns the affine y-coordinate as a fixed-width big-endian byte string.
func (p *Point) Y() []byte {
	out := make([]byte, p.curve.ScalarSize())
	p.y.FillBytes(out)
	return out
}

// YIsOdd reports the parity of the y-coordinate.
func (p *Point) YIsOdd() bool {
	return p.y.Bit(0) == 1
}

// Bytes encodes the point in the requested shape. PointCompliant and the
// two compressed shapes all yield the bare x-coordinate; PointSEC1 yields
// the tagged compressed form matching the point's y parity.
func (p *Point) Bytes(enc PointEncoding) []byte {
	clen := p.curve.ScalarSize()
	switch enc {
	case PointFull:
		out := make([]byte, 2*clen)
		p.x.FillBytes(out[:clen])
		p.y.FillBytes(out[clen:])
		return out
	case PointCompliant, PointCompressedEven, PointCompressedOdd:
		return p.X()
	case PointSEC1:
		out := make([]byte, 1+clen)
		out[0] = 0x02
		if p.YIsOdd() {
			out[0] = 0x03
		}
		p.x.FillBytes(out[1:])
		return out
	}
	return nil
}

// Equal reports whether two points are the same group element.
func (p *Point) Equal(q *Point) bool {
	return p.curve == q.curve && p.x.Cmp(q.x) == 0 && p.y.Cmp(q.y) == 0
}

// Add returns p + q.
func (p *Point) Add(q *Point) (*Point, error) {
	if p.curve != q.curve {
		return nil, ErrCurveMismatch
	}
	x, y := p.curve.curve().Add(p.x, p.y, q.x, q.y)
	return pointFromArith(p.curve, x, y)
}

// Mul returns the scalar multiple k*p.
func (p *Point) Mul(k *Scalar) (*Point, error) {
	if p.curve != k.curve {
		return nil, ErrCurveMismatch
	}
	x, y := p.curve.curve().ScalarMult(p.x, p.y, k.Bytes())
	return pointFromArith(p.curve, x, y)
}

// Neg returns -p (the point with the same x and negated y).
func (p *Point) Neg() *Point {
	ny := new(big.Int).Sub(p.curve.params().P, p.y)
	ny.Mod(ny, p.curve.params().P)
	return &Point{curve: p.curve, x: new(big.Int).Set(p.x), y: ny}
}

func pointFromArith(c CurveID, x, y *big.Int) (*Point, error) {
	// crypto/elliptic represents the point at infinity as (0, 0).
	if x.Sign() == 0 && y.Sign() == 0 {
		return nil, ErrPointAtInfinity
	}
	return &Point{curve: c, x: x, y: y}, nil
}

// GeneratorMul returns k*G for the curve's base point G.
func GeneratorMul(k *Scalar) (*Point, error) {
	x, y := k.curve.curve().ScalarBaseMult(k.Bytes())
	return pointFromArith(k.curve, x, y)
}

// ECDH computes the x-coordinate of priv*pub as a fixed-width big-endian
// byte string. The point at infinity is rejected.
func ECDH(priv *Scalar, pub *Point) ([]byte, error) {
	shared, err := pub.Mul(priv)
	if err != nil {
		return nil, err
	}
	x := shared.X()
	wipeBig(shared.x)
	wipeBig(shared.y)
	return x, nil
}
