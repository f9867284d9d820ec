// Package auth implements the DPP Authentication key schedule: the
// intermediate keys k1 and k2, the session key ke, the mutual
// authentication secret L, and the R-auth/I-auth confirmation hashes.
//
// All derivations are pure functions of per-session key material. The hash
// is always the one associated with the negotiated curve (SHA-256 on P-256,
// SHA-384 on P-384), and every secret byte string returned is owned by the
// caller, who should zeroize it once the session is over.
package auth

import (
	"errors"

	"github.com/backkem/easyconnect/pkg/crypto"
)

// HKDF info strings from the protocol key schedule.
var (
	infoFirstIntermediateKey  = []byte("first intermediate key")
	infoSecondIntermediateKey = []byte("second intermediate key")
	infoDPPKey                = []byte("DPP Key")
)

// Errors for the authentication key schedule.
var (
	ErrBadNonce       = errors.New("auth: nonce length does not match the curve")
	ErrBadSecret      = errors.New("auth: secret length does not match the curve")
	ErrCurveMismatch  = errors.New("auth: key material from different curves")
)

// DeriveK1 derives the first intermediate key from an ECDH between the
// initiator's ephemeral protocol key and the responder's bootstrap key
// (either side passes its private half and the peer's public half).
func DeriveK1(priv *crypto.Scalar, peerPub *crypto.Point) ([]byte, error) {
	mx, err := crypto.ECDH(priv, peerPub)
	if err != nil {
		return nil, err
	}
	defer crypto.Zeroize(mx)
	return intermediateKey(priv.Curve(), mx, infoFirstIntermediateKey)
}

// DeriveK2 derives the second intermediate key from an ECDH between the
// two ephemeral protocol keys.
func DeriveK2(priv *crypto.Scalar, peerPub *crypto.Point) ([]byte, error) {
	nx, err := crypto.ECDH(priv, peerPub)
	if err != nil {
		return nil, err
	}
	defer crypto.Zeroize(nx)
	return intermediateKey(priv.Curve(), nx, infoSecondIntermediateKey)
}

// DeriveK1FromSecret derives k1 from an already-computed shared-secret
// x-coordinate, for callers that cache the ECDH output (it also feeds ke).
func DeriveK1FromSecret(curve crypto.CurveID, mx []byte) ([]byte, error) {
	if len(mx) != curve.ScalarSize() {
		return nil, ErrBadSecret
	}
	return intermediateKey(curve, mx, infoFirstIntermediateKey)
}

// DeriveK2FromSecret derives k2 from an already-computed shared-secret
// x-coordinate.
func DeriveK2FromSecret(curve crypto.CurveID, nx []byte) ([]byte, error) {
	if len(nx) != curve.ScalarSize() {
		return nil, ErrBadSecret
	}
	return intermediateKey(curve, nx, infoSecondIntermediateKey)
}

func intermediateKey(curve crypto.CurveID, secret, info []byte) ([]byte, error) {
	newHash := curve.HashNew()
	prk := crypto.HKDFExtract(newHash, secret, nil)
	defer crypto.Zeroize(prk)
	return crypto.HKDFExpand(newHash, prk, info, curve.ScalarSize())
}

// DeriveLInitiator computes the mutual-authentication secret on the
// initiator side: L = bI * (BR + PR). Both bootstrap keys must be known to
// the session for L to be defined.
func DeriveLInitiator(bI *crypto.Scalar, BR, PR *crypto.Point) (*crypto.Point, error) {
	sum, err := BR.Add(PR)
	if err != nil {
		return nil, err
	}
	return sum.Mul(bI)
}

// DeriveLResponder computes the same secret on the responder side:
// L = ((bR + pR) mod n) * BI. The scalar sum is reduced modulo the group
// order before the multiplication.
func DeriveLResponder(bR, pR *crypto.Scalar, BI *crypto.Point) (*crypto.Point, error) {
	sum, err := bR.AddModN(pR)
	if err != nil {
		return nil, err
	}
	defer sum.Zeroize()
	return BI.Mul(sum)
}

// DeriveKe derives the session key:
//
//	bk = HKDF-Extract(I-nonce || R-nonce, Mx || Nx [|| Lx])
//	ke = HKDF-Expand(bk, "DPP Key", keyLen)
//
// lx is nil unless the session uses mutual authentication.
func DeriveKe(curve crypto.CurveID, iNonce, rNonce, mx, nx, lx []byte) ([]byte, error) {
	nonceLen := curve.NonceSize()
	if len(iNonce) != nonceLen || len(rNonce) != nonceLen {
		return nil, ErrBadNonce
	}
	keyLen := curve.ScalarSize()
	if len(mx) != keyLen || len(nx) != keyLen {
		return nil, ErrBadSecret
	}
	if lx != nil && len(lx) != keyLen {
		return nil, ErrBadSecret
	}

	newHash := curve.HashNew()

	salt := make([]byte, 0, 2*nonceLen)
	salt = append(salt, iNonce...)
	salt = append(salt, rNonce...)

	ikm := make([]byte, 0, 3*keyLen)
	ikm = append(ikm, mx...)
	ikm = append(ikm, nx...)
	if lx != nil {
		ikm = append(ikm, lx...)
	}
	defer crypto.Zeroize(ikm)

	bk := crypto.HKDFExtract(newHash, ikm, salt)
	defer crypto.Zeroize(bk)

	return crypto.HKDFExpand(newHash, bk, infoDPPKey, keyLen)
}

// DeriveRAuth computes the responder's authentication confirmation hash:
//
//	R-auth = H(I-nonce || R-nonce || PI.x || PR.x || [BI.x ||] BR.x || 0x00)
//
// BI is nil when the initiator's bootstrap key is not part of the session;
// the presence decision must match the one made for DeriveIAuth.
func DeriveRAuth(iNonce, rNonce []byte, PI, PR, BI, BR *crypto.Point) ([]byte, error) {
	return confirmHash(iNonce, rNonce, PI, PR, BI, BR, 0x00)
}

// DeriveIAuth computes the initiator's authentication confirmation hash:
//
//	I-auth = H(R-nonce || I-nonce || PR.x || PI.x || BR.x || [BI.x ||] 0x01)
//
// The nonce and key order is the mirror image of R-auth and the trailing
// byte differs; the two hashes are never interchangeable.
func DeriveIAuth(iNonce, rNonce []byte, PI, PR, BI, BR *crypto.Point) ([]byte, error) {
	return confirmHash(rNonce, iNonce, PR, PI, BI, BR, 0x01)
}

// confirmHash hashes firstNonce || secondNonce || firstProto.x ||
// secondProto.x || <bootstrap keys> || tag. The bootstrap-key order places
// BR.x last for R-auth and BI.x last for I-auth, matching the wire
// definition of the two tags.
func confirmHash(firstNonce, secondNonce []byte, firstProto, secondProto, BI, BR *crypto.Point, tag byte) ([]byte, error) {
	curve := firstProto.Curve()
	if secondProto.Curve() != curve || BR.Curve() != curve {
		return nil, ErrCurveMismatch
	}
	if BI != nil && BI.Curve() != curve {
		return nil, ErrCurveMismatch
	}
	nonceLen := curve.NonceSize()
	if len(firstNonce) != nonceLen || len(secondNonce) != nonceLen {
		return nil, ErrBadNonce
	}

	parts := [][]byte{firstNonce, secondNonce, firstProto.X(), secondProto.X()}
	if tag == 0x00 {
		// R-auth: [BI.x ||] BR.x
		if BI != nil {
			parts = append(parts, BI.X())
		}
		parts = append(parts, BR.X())
	} else {
		// I-auth: BR.x [|| BI.x]
		parts = append(parts, BR.X())
		if BI != nil {
			parts = append(parts, BI.X())
		}
	}
	parts = append(parts, []byte{tag})

	return crypto.Digest(curve.HashNew(), parts...), nil
}
