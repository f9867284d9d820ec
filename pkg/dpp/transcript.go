package dpp

import (
	"errors"

	"github.com/backkem/easyconnect/pkg/auth"
	"github.com/backkem/easyconnect/pkg/crypto"
)

// Transcript errors.
var (
	ErrTranscriptIncomplete = errors.New("dpp: transcript is missing key material")
	ErrTranscriptCurve      = errors.New("dpp: transcript mixes curves")
	ErrTranscriptNonce      = errors.New("dpp: transcript nonce has the wrong length")
)

// Transcript records the public inputs both peers feed into the
// authentication confirmation hashes: the two nonces, the two protocol
// keys, and the bootstrap keys in use.
//
// BI is nil in responder-only authentication. Its presence must agree
// between the peers; whether to compute in mutual mode is read from the
// transcript itself, never inferred elsewhere.
type Transcript struct {
	Curve crypto.CurveID

	INonce []byte
	RNonce []byte

	// PI and PR are the initiator and responder protocol public keys.
	PI *crypto.Point
	PR *crypto.Point

	// BI and BR are the bootstrap public keys. BI may be nil.
	BI *crypto.Point
	BR *crypto.Point
}

// Mutual reports whether the transcript describes a mutually authenticated
// exchange.
func (t *Transcript) Mutual() bool {
	return t.BI != nil
}

// Validate checks the transcript is complete and internally consistent.
func (t *Transcript) Validate() error {
	if t.PI == nil || t.PR == nil || t.BR == nil {
		return ErrTranscriptIncomplete
	}
	if len(t.INonce) == 0 || len(t.RNonce) == 0 {
		return ErrTranscriptIncomplete
	}
	if !t.Curve.Valid() {
		return crypto.ErrUnsupportedCurve
	}

	points := []*crypto.Point{t.PI, t.PR, t.BR}
	if t.BI != nil {
		points = append(points, t.BI)
	}
	for _, p := range points {
		if p.Curve() != t.Curve {
			return ErrTranscriptCurve
		}
	}

	nonceLen := t.Curve.NonceSize()
	if len(t.INonce) != nonceLen || len(t.RNonce) != nonceLen {
		return ErrTranscriptNonce
	}
	return nil
}

// RAuth computes the responder confirmation hash over the transcript.
func (t *Transcript) RAuth() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return auth.DeriveRAuth(t.INonce, t.RNonce, t.PI, t.PR, t.BI, t.BR)
}

// IAuth computes the initiator confirmation hash over the transcript.
func (t *Transcript) IAuth() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return auth.DeriveIAuth(t.INonce, t.RNonce, t.PI, t.PR, t.BI, t.BR)
}
