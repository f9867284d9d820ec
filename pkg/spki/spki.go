// Package spki encodes and decodes the X.509 SubjectPublicKeyInfo structure
// carrying an elliptic-curve bootstrapping public key.
//
// Only the id-ecPublicKey algorithm with the prime256v1 or secp384r1 named
// curve is accepted, and the public key is emitted in SEC1 compressed form.
// This is the structure transported (base64-encoded) in the K: token of a
// DPP bootstrapping URI.
package spki

import (
	enc_asn1 "encoding/asn1"
	"errors"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/backkem/easyconnect/pkg/crypto"
)

// Encoded sizes for the two supported curves.
const (
	P256EncodedSize = 59
	P384EncodedSize = 76
)

// Errors for SubjectPublicKeyInfo parsing.
var (
	ErrMalformed        = errors.New("spki: malformed SubjectPublicKeyInfo")
	ErrUnknownAlgorithm = errors.New("spki: unknown public key algorithm")
	ErrUnknownCurve     = errors.New("spki: unknown named curve")
)

var (
	oidECPublicKey = enc_asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidPrime256v1  = enc_asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
	oidSecp384r1   = enc_asn1.ObjectIdentifier{1, 3, 132, 0, 34}
)

// Encode serializes a public key point as a SubjectPublicKeyInfo with the
// key in SEC1 compressed form. A P-256 key encodes to exactly 59 bytes and
// a P-384 key to 76.
func Encode(pub *crypto.Point) ([]byte, error) {
	var curveOID enc_asn1.ObjectIdentifier
	switch pub.Curve() {
	case crypto.P256:
		curveOID = oidPrime256v1
	case crypto.P384:
		curveOID = oidSecp384r1
	default:
		return nil, ErrUnknownCurve
	}

	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oidECPublicKey)
			b.AddASN1ObjectIdentifier(curveOID)
		})
		b.AddASN1BitString(pub.Bytes(crypto.PointSEC1))
	})
	return b.Bytes()
}

// Decode parses a SubjectPublicKeyInfo and returns the public key point.
// The structure must contain exactly the two-OID algorithm identifier, a
// BIT STRING with no unused bits, and an on-curve SEC1 point; anything else
// is rejected.
func Decode(data []byte) (*crypto.Point, error) {
	input := cryptobyte.String(data)

	var outer cryptobyte.String
	if !input.ReadASN1(&outer, asn1.SEQUENCE) || !input.Empty() {
		return nil, ErrMalformed
	}

	var algorithm cryptobyte.String
	if !outer.ReadASN1(&algorithm, asn1.SEQUENCE) {
		return nil, ErrMalformed
	}

	var algOID enc_asn1.ObjectIdentifier
	if !algorithm.ReadASN1ObjectIdentifier(&algOID) {
		return nil, ErrMalformed
	}
	if !algOID.Equal(oidECPublicKey) {
		return nil, ErrUnknownAlgorithm
	}

	var curveOID enc_asn1.ObjectIdentifier
	if !algorithm.ReadASN1ObjectIdentifier(&curveOID) || !algorithm.Empty() {
		return nil, ErrMalformed
	}

	var curve crypto.CurveID
	switch {
	case curveOID.Equal(oidPrime256v1):
		curve = crypto.P256
	case curveOID.Equal(oidSecp384r1):
		curve = crypto.P384
	default:
		return nil, ErrUnknownCurve
	}

	var pk enc_asn1.BitString
	if !outer.ReadASN1BitString(&pk) || !outer.Empty() {
		return nil, ErrMalformed
	}
	// The key is an octet-aligned SEC1 point; unused bits must be zero.
	if pk.BitLength != len(pk.Bytes)*8 {
		return nil, ErrMalformed
	}

	pub, err := crypto.NewPoint(curve, crypto.PointSEC1, pk.Bytes)
	if err != nil {
		return nil, err
	}
	return pub, nil
}
