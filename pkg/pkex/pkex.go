// Package pkex implements the PKEX (Public Key Exchange) key schedule: the
// password-derived encrypting points Qi and Qr, the exchange secret z, and
// the commit-reveal tags u and v.
//
// PKEX bootstraps trust from a short shared code instead of a scanned URI.
// The role base points Pi and Pr are fixed curve constants; only P-256 has
// published values, so other curves are rejected.
//
// Depending on the protocol version the parties' MAC addresses may be left
// out of the derivations. That choice is the caller's: a nil MAC omits it
// from the hash, and both sides of a session must make the same choice for
// every derivation.
package pkex

import (
	"errors"

	"github.com/backkem/easyconnect/pkg/crypto"
)

// Errors for the PKEX key schedule.
var (
	ErrUnsupportedCurve = errors.New("pkex: no role points for curve")
	ErrEmptyCode        = errors.New("pkex: empty code")
	ErrBadMAC           = errors.New("pkex: MAC address must be 6 bytes")
)

// Role base point x-coordinates for P-256, decoded on each use in the
// x-only compliant form (even y).
var (
	pkexInitXP256 = []byte{
		0x56, 0x26, 0x12, 0xcf, 0x36, 0x48, 0xfe, 0x0b,
		0x07, 0x04, 0xbb, 0x12, 0x22, 0x50, 0xb2, 0x54,
		0xb1, 0x94, 0x64, 0x7e, 0x54, 0xce, 0x08, 0x07,
		0x2e, 0xec, 0xca, 0x74, 0x5b, 0x61, 0x2d, 0x25,
	}
	pkexRespXP256 = []byte{
		0x1e, 0xa4, 0x8a, 0xb1, 0xa4, 0xe8, 0x42, 0x39,
		0xad, 0x73, 0x07, 0xf2, 0x34, 0xdf, 0x57, 0x4f,
		0xc0, 0x9d, 0x54, 0xbe, 0x36, 0x1b, 0x31, 0x0f,
		0x59, 0x91, 0x52, 0x33, 0xac, 0x19, 0x9d, 0x76,
	}
)

func rolePoint(curve crypto.CurveID, initiator bool) (*crypto.Point, error) {
	if curve != crypto.P256 {
		return nil, ErrUnsupportedCurve
	}
	x := pkexRespXP256
	if initiator {
		x = pkexInitXP256
	}
	return crypto.NewPoint(curve, crypto.PointCompliant, x)
}

// DeriveQi derives the initiator's encrypting point:
//
//	Qi = H(mac_i || [identifier ||] code) * Pi
//
// macI may be nil when the session's protocol version leaves MAC addresses
// out of the derivations; identifier may be empty.
func DeriveQi(curve crypto.CurveID, code, identifier string, macI []byte) (*crypto.Point, error) {
	return deriveQ(curve, code, identifier, macI, true)
}

// DeriveQr derives the responder's encrypting point over Pr from the
// responder's MAC address.
func DeriveQr(curve crypto.CurveID, code, identifier string, macR []byte) (*crypto.Point, error) {
	return deriveQ(curve, code, identifier, macR, false)
}

func deriveQ(curve crypto.CurveID, code, identifier string, mac []byte, initiator bool) (*crypto.Point, error) {
	if code == "" {
		return nil, ErrEmptyCode
	}
	if mac != nil && len(mac) != 6 {
		return nil, ErrBadMAC
	}

	base, err := rolePoint(curve, initiator)
	if err != nil {
		return nil, err
	}

	var parts [][]byte
	if mac != nil {
		parts = append(parts, mac)
	}
	if identifier != "" {
		parts = append(parts, []byte(identifier))
	}
	parts = append(parts, []byte(code))

	digest := crypto.Digest(curve.HashNew(), parts...)
	defer crypto.Zeroize(digest)

	h, err := crypto.NewScalarReduced(curve, digest)
	if err != nil {
		return nil, err
	}
	defer h.Zeroize()

	return base.Mul(h)
}

// DeriveZ derives the exchange secret:
//
//	z = prf+(HKDF-Extract(nil, K.x), keyLen, [mac_i,] [mac_r,] M.x, N.x, code)
//
// kx is the x-coordinate of the ECDH shared point K; mx and nx are the
// x-coordinates of the exchanged encrypted shares. Nil MACs are omitted,
// mirroring DeriveQi/DeriveQr.
func DeriveZ(curve crypto.CurveID, macI, macR, mx, nx []byte, code string, kx []byte) ([]byte, error) {
	if code == "" {
		return nil, ErrEmptyCode
	}
	if (macI != nil && len(macI) != 6) || (macR != nil && len(macR) != 6) {
		return nil, ErrBadMAC
	}

	newHash := curve.HashNew()
	prk := crypto.HKDFExtract(newHash, kx, nil)
	defer crypto.Zeroize(prk)

	var parts [][]byte
	if macI != nil {
		parts = append(parts, macI)
	}
	if macR != nil {
		parts = append(parts, macR)
	}
	parts = append(parts, mx, nx, []byte(code))

	return crypto.PRFPlus(newHash, prk, curve.ScalarSize(), parts...), nil
}

// DeriveU computes the initiator's commit-reveal tag:
//
//	u = HMAC(J.x, mac_i || A.x || Y'.x || X.x)
//
// where J is the initiator's proof point, A its bootstrap public key, Y'
// the unmasked responder ephemeral and X its own ephemeral. The responder
// recomputes u with its own view of the same coordinates; the byte order
// never changes with the role.
func DeriveU(curve crypto.CurveID, jx, macI, ax, yx, xx []byte) ([]byte, error) {
	return revealTag(curve, jx, macI, ax, yx, xx)
}

// DeriveV computes the responder's commit-reveal tag:
//
//	v = HMAC(L.x, mac_r || B.x || X'.x || Y.x)
func DeriveV(curve crypto.CurveID, lx, macR, bx, xx, yx []byte) ([]byte, error) {
	return revealTag(curve, lx, macR, bx, xx, yx)
}

func revealTag(curve crypto.CurveID, key, mac []byte, coords ...[]byte) ([]byte, error) {
	if mac != nil && len(mac) != 6 {
		return nil, ErrBadMAC
	}

	var parts [][]byte
	if mac != nil {
		parts = append(parts, mac)
	}
	parts = append(parts, coords...)

	return crypto.HMAC(curve.HashNew(), key, parts...), nil
}
