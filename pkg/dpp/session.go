package dpp

import (
	cryptorand "crypto/rand"
	"errors"
	"io"

	"github.com/pion/logging"

	"github.com/backkem/easyconnect/pkg/auth"
	"github.com/backkem/easyconnect/pkg/crypto"
)

// Role selects which side of the authentication exchange a session plays.
type Role int

const (
	// RoleInitiator starts the exchange, usually after scanning the
	// responder's bootstrapping URI.
	RoleInitiator Role = iota

	// RoleResponder answers an initiator that knows its bootstrap key.
	RoleResponder
)

// FrameSink is the host's transmit path. The session never calls it; it
// documents the shape a driver is expected to provide when it takes frames
// built with BuildActionFrame on the air.
type FrameSink interface {
	// TXFrame queues a frame toward peer on the given frequency.
	TXFrame(t FrameType, freq uint32, peer [6]byte, frame []byte) error
}

// Session errors.
var (
	ErrSessionConfig    = errors.New("dpp: session is missing required bootstrap keys")
	ErrNoProtocolKey    = errors.New("dpp: protocol key not generated yet")
	ErrNoPeerKey        = errors.New("dpp: peer protocol key not set")
	ErrNoNonces         = errors.New("dpp: nonces incomplete")
	ErrNotMutual        = errors.New("dpp: session has no mutual authentication key material")
	ErrSessionClosed    = errors.New("dpp: session closed")
)

// SessionConfig configures a Session.
type SessionConfig struct {
	Role  Role
	Curve crypto.CurveID

	// OwnBootstrap is this side's bootstrap private key. Required for the
	// responder; for the initiator it is only needed for (and enables)
	// mutual authentication.
	OwnBootstrap *crypto.Scalar

	// PeerBootstrap is the peer's bootstrap public key, typically from a
	// scanned URI. Required for the initiator; for the responder it is
	// only needed for mutual authentication.
	PeerBootstrap *crypto.Point

	// Rand is the entropy source for protocol keys and nonces.
	// If nil, crypto/rand is used.
	Rand io.Reader

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Session owns the secret state of one authentication exchange: the
// ephemeral protocol key, the nonces, and the derived intermediate and
// session keys. It is not safe for concurrent use. Close wipes all secret
// material.
type Session struct {
	role  Role
	curve crypto.CurveID
	rand  io.Reader
	log   logging.LeveledLogger

	ownBoot    *crypto.Scalar
	ownBootPub *crypto.Point
	peerBoot   *crypto.Point

	protoPriv *crypto.Scalar
	protoPub  *crypto.Point
	peerProto *crypto.Point

	iNonce, rNonce []byte

	mx, nx []byte

	closed bool
}

// NewSession validates the configuration and creates a session.
func NewSession(config SessionConfig) (*Session, error) {
	if !config.Curve.Valid() {
		return nil, crypto.ErrUnsupportedCurve
	}
	switch config.Role {
	case RoleInitiator:
		if config.PeerBootstrap == nil {
			return nil, ErrSessionConfig
		}
	case RoleResponder:
		if config.OwnBootstrap == nil {
			return nil, ErrSessionConfig
		}
	default:
		return nil, ErrSessionConfig
	}

	if config.OwnBootstrap != nil && config.OwnBootstrap.Curve() != config.Curve {
		return nil, crypto.ErrCurveMismatch
	}
	if config.PeerBootstrap != nil && config.PeerBootstrap.Curve() != config.Curve {
		return nil, crypto.ErrCurveMismatch
	}

	s := &Session{
		role:     config.Role,
		curve:    config.Curve,
		rand:     config.Rand,
		ownBoot:  config.OwnBootstrap,
		peerBoot: config.PeerBootstrap,
	}
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("dpp")
	}

	if s.ownBoot != nil {
		pub, err := crypto.GeneratorMul(s.ownBoot)
		if err != nil {
			return nil, err
		}
		s.ownBootPub = pub
	}
	return s, nil
}

// Mutual reports whether the session can run mutual authentication: both
// bootstrap keys are known on this side.
func (s *Session) Mutual() bool {
	if s.role == RoleInitiator {
		return s.ownBoot != nil
	}
	return s.peerBoot != nil
}

// GenerateProtocolKey draws the ephemeral protocol key pair and returns
// the public point for the peer.
func (s *Session) GenerateProtocolKey() (*crypto.Point, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	priv, err := crypto.GenerateScalar(s.curve, s.rand)
	if err != nil {
		return nil, err
	}
	pub, err := crypto.GeneratorMul(priv)
	if err != nil {
		priv.Zeroize()
		return nil, err
	}

	s.protoPriv = priv
	s.protoPub = pub
	if s.log != nil {
		s.log.Debugf("generated %s protocol key", s.curve)
	}
	return pub, nil
}

// SetPeerProtocolKey installs the peer's ephemeral protocol public key.
func (s *Session) SetPeerProtocolKey(pub *crypto.Point) error {
	if s.closed {
		return ErrSessionClosed
	}
	if pub.Curve() != s.curve {
		return crypto.ErrCurveMismatch
	}
	s.peerProto = pub
	return nil
}

// GenerateNonce draws this side's nonce (I-nonce for the initiator,
// R-nonce for the responder) and returns it.
func (s *Session) GenerateNonce() ([]byte, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	nonce := make([]byte, s.curve.NonceSize())
	r := s.rand
	if r == nil {
		r = cryptorand.Reader
	}
	if _, err := io.ReadFull(r, nonce); err != nil {
		return nil, err
	}

	if s.role == RoleInitiator {
		s.iNonce = nonce
	} else {
		s.rNonce = nonce
	}
	return nonce, nil
}

// SetPeerNonce installs the nonce received from the peer.
func (s *Session) SetPeerNonce(nonce []byte) error {
	if s.closed {
		return ErrSessionClosed
	}
	if len(nonce) != s.curve.NonceSize() {
		return ErrTranscriptNonce
	}
	cp := append([]byte{}, nonce...)
	if s.role == RoleInitiator {
		s.rNonce = cp
	} else {
		s.iNonce = cp
	}
	return nil
}

// FirstIntermediateKey derives k1. The initiator needs its protocol key
// and the peer bootstrap key; the responder needs its bootstrap key and
// the peer protocol key.
func (s *Session) FirstIntermediateKey() ([]byte, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	var mx []byte
	var err error
	if s.role == RoleInitiator {
		if s.protoPriv == nil {
			return nil, ErrNoProtocolKey
		}
		mx, err = crypto.ECDH(s.protoPriv, s.peerBoot)
	} else {
		if s.peerProto == nil {
			return nil, ErrNoPeerKey
		}
		mx, err = crypto.ECDH(s.ownBoot, s.peerProto)
	}
	if err != nil {
		return nil, err
	}

	crypto.Zeroize(s.mx)
	s.mx = mx
	return auth.DeriveK1FromSecret(s.curve, mx)
}

// SecondIntermediateKey derives k2 from the two protocol keys.
func (s *Session) SecondIntermediateKey() ([]byte, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.protoPriv == nil {
		return nil, ErrNoProtocolKey
	}
	if s.peerProto == nil {
		return nil, ErrNoPeerKey
	}

	nx, err := crypto.ECDH(s.protoPriv, s.peerProto)
	if err != nil {
		return nil, err
	}
	crypto.Zeroize(s.nx)
	s.nx = nx
	return auth.DeriveK2FromSecret(s.curve, nx)
}

// mutualSecret computes Lx for this side of the exchange.
func (s *Session) mutualSecret() ([]byte, error) {
	if !s.Mutual() {
		return nil, ErrNotMutual
	}

	var l *crypto.Point
	var err error
	if s.role == RoleInitiator {
		if s.peerProto == nil {
			return nil, ErrNoPeerKey
		}
		l, err = auth.DeriveLInitiator(s.ownBoot, s.peerBoot, s.peerProto)
	} else {
		if s.protoPriv == nil {
			return nil, ErrNoProtocolKey
		}
		l, err = auth.DeriveLResponder(s.ownBoot, s.protoPriv, s.peerBoot)
	}
	if err != nil {
		return nil, err
	}
	return l.X(), nil
}

// SessionKey derives ke. Both intermediate keys must have been derived
// first so the shared secrets are cached, and both nonces must be present.
// In a mutual session the L secret is folded in automatically.
func (s *Session) SessionKey() ([]byte, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.mx == nil || s.nx == nil {
		return nil, ErrNoProtocolKey
	}
	if s.iNonce == nil || s.rNonce == nil {
		return nil, ErrNoNonces
	}

	var lx []byte
	if s.Mutual() {
		var err error
		lx, err = s.mutualSecret()
		if err != nil {
			return nil, err
		}
		defer crypto.Zeroize(lx)
	}

	ke, err := auth.DeriveKe(s.curve, s.iNonce, s.rNonce, s.mx, s.nx, lx)
	if err != nil {
		return nil, err
	}
	if s.log != nil {
		s.log.Debugf("derived session key (mutual=%v)", s.Mutual())
	}
	return ke, nil
}

// Transcript assembles the confirmation-hash transcript from the session's
// view of the exchange.
func (s *Session) Transcript() (*Transcript, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.protoPub == nil {
		return nil, ErrNoProtocolKey
	}
	if s.peerProto == nil {
		return nil, ErrNoPeerKey
	}

	t := &Transcript{
		Curve:  s.curve,
		INonce: s.iNonce,
		RNonce: s.rNonce,
	}
	if s.role == RoleInitiator {
		t.PI, t.PR = s.protoPub, s.peerProto
		t.BR = s.peerBoot
		if s.Mutual() {
			t.BI = s.ownBootPub
		}
	} else {
		t.PI, t.PR = s.peerProto, s.protoPub
		t.BR = s.ownBootPub
		if s.Mutual() {
			t.BI = s.peerBoot
		}
	}
	return t, nil
}

// Close wipes the session's secret material. The session is unusable
// afterwards.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true

	if s.protoPriv != nil {
		s.protoPriv.Zeroize()
	}
	crypto.Zeroize(s.mx)
	crypto.Zeroize(s.nx)
	crypto.Zeroize(s.iNonce)
	crypto.Zeroize(s.rNonce)
	if s.log != nil {
		s.log.Debug("session closed")
	}
}
