package pkex

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/backkem/easyconnect/pkg/crypto"
)

// Published P-256 PKEX test vector inputs.
var (
	vecMacI       = []byte{0xac, 0x64, 0x91, 0xf4, 0x52, 0x07}
	vecMacR       = []byte{0x6e, 0x5e, 0xce, 0x6e, 0xf3, 0xdd}
	vecIdentifier = "joes_key"
	vecCode       = "thisisreallysecret"
)

const (
	vecQiX = "2867c4e080980dbad5099a8f821e8729679c5c714888c0bd9c7e8e4048c5fa5e"
	vecQrX = "134af1c41c8e7d974c647cc2bfca30b036966959f9044e90f673d756706e624c"
)

func TestDeriveQiVector(t *testing.T) {
	qi, err := DeriveQi(crypto.P256, vecCode, vecIdentifier, vecMacI)
	if err != nil {
		t.Fatalf("DeriveQi: %v", err)
	}
	want, _ := hex.DecodeString(vecQiX)
	if !bytes.Equal(qi.X(), want) {
		t.Errorf("Qi.x = %x, want %s", qi.X(), vecQiX)
	}
}

func TestDeriveQrVector(t *testing.T) {
	qr, err := DeriveQr(crypto.P256, vecCode, vecIdentifier, vecMacR)
	if err != nil {
		t.Fatalf("DeriveQr: %v", err)
	}
	want, _ := hex.DecodeString(vecQrX)
	if !bytes.Equal(qr.X(), want) {
		t.Errorf("Qr.x = %x, want %s", qr.X(), vecQrX)
	}
}

func TestDeriveQSensitivity(t *testing.T) {
	base, err := DeriveQi(crypto.P256, vecCode, vecIdentifier, vecMacI)
	if err != nil {
		t.Fatal(err)
	}

	variants := []struct {
		name       string
		code, id   string
		mac        []byte
	}{
		{"Code", "someothersecret", vecIdentifier, vecMacI},
		{"Identifier", vecCode, "bobs_key", vecMacI},
		{"NoIdentifier", vecCode, "", vecMacI},
		{"MAC", vecCode, vecIdentifier, vecMacR},
		{"NoMAC", vecCode, vecIdentifier, nil},
	}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			q, err := DeriveQi(crypto.P256, v.code, v.id, v.mac)
			if err != nil {
				t.Fatal(err)
			}
			if bytes.Equal(q.X(), base.X()) {
				t.Error("input change did not change Qi")
			}
		})
	}
}

// Runs the exchange algebra end to end: both roles mask and unmask the
// ephemeral shares and must agree on z, u and v.
func TestExchangeAgreement(t *testing.T) {
	curve := crypto.P256

	qi, err := DeriveQi(curve, vecCode, vecIdentifier, vecMacI)
	if err != nil {
		t.Fatal(err)
	}
	qr, err := DeriveQr(curve, vecCode, vecIdentifier, vecMacR)
	if err != nil {
		t.Fatal(err)
	}

	// Bootstrap keys: A = bI*G, B = bR*G.
	bI, bR := mustGen(t, curve), mustGen(t, curve)
	A, B := mustPub(t, bI), mustPub(t, bR)

	// Ephemerals: X = x*G masked as M = X + Qi; Y = y*G masked as N = Y + Qr.
	x, y := mustGen(t, curve), mustGen(t, curve)
	X, Y := mustPub(t, x), mustPub(t, y)

	M, err := X.Add(qi)
	if err != nil {
		t.Fatal(err)
	}
	N, err := Y.Add(qr)
	if err != nil {
		t.Fatal(err)
	}

	// Each side unmasks the peer share by subtracting the encrypting point.
	unmaskedX, err := M.Add(qi.Neg())
	if err != nil {
		t.Fatal(err)
	}
	if !unmaskedX.Equal(X) {
		t.Fatal("responder failed to unmask X")
	}
	unmaskedY, err := N.Add(qr.Neg())
	if err != nil {
		t.Fatal(err)
	}
	if !unmaskedY.Equal(Y) {
		t.Fatal("initiator failed to unmask Y")
	}

	// K = x*Y = y*X.
	kxInit, err := crypto.ECDH(x, unmaskedY)
	if err != nil {
		t.Fatal(err)
	}
	kxResp, err := crypto.ECDH(y, unmaskedX)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(kxInit, kxResp) {
		t.Fatal("K disagreement")
	}

	zInit, err := DeriveZ(curve, vecMacI, vecMacR, M.X(), N.X(), vecCode, kxInit)
	if err != nil {
		t.Fatal(err)
	}
	zResp, err := DeriveZ(curve, vecMacI, vecMacR, M.X(), N.X(), vecCode, kxResp)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(zInit, zResp) {
		t.Fatal("z disagreement")
	}
	if len(zInit) != curve.ScalarSize() {
		t.Errorf("z length %d, want %d", len(zInit), curve.ScalarSize())
	}

	// u: initiator proves knowledge of bI via J = bI*Y; the responder
	// recomputes J' = y*A.
	jInit, err := unmaskedY.Mul(bI)
	if err != nil {
		t.Fatal(err)
	}
	jResp, err := A.Mul(y)
	if err != nil {
		t.Fatal(err)
	}
	uInit, err := DeriveU(curve, jInit.X(), vecMacI, A.X(), unmaskedY.X(), X.X())
	if err != nil {
		t.Fatal(err)
	}
	uResp, err := DeriveU(curve, jResp.X(), vecMacI, A.X(), Y.X(), unmaskedX.X())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(uInit, uResp) {
		t.Fatal("u disagreement")
	}

	// v: responder proves knowledge of bR via L = bR*X; the initiator
	// recomputes L' = x*B.
	lResp, err := unmaskedX.Mul(bR)
	if err != nil {
		t.Fatal(err)
	}
	lInit, err := B.Mul(x)
	if err != nil {
		t.Fatal(err)
	}
	vResp, err := DeriveV(curve, lResp.X(), vecMacR, B.X(), unmaskedX.X(), Y.X())
	if err != nil {
		t.Fatal(err)
	}
	vInit, err := DeriveV(curve, lInit.X(), vecMacR, B.X(), X.X(), unmaskedY.X())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(vInit, vResp) {
		t.Fatal("v disagreement")
	}

	if bytes.Equal(uInit, vInit) {
		t.Error("u and v must differ")
	}
}

func TestDeriveZSensitivity(t *testing.T) {
	kx := bytes.Repeat([]byte{0x77}, 32)
	mx := bytes.Repeat([]byte{0x01}, 32)
	nx := bytes.Repeat([]byte{0x02}, 32)

	base, err := DeriveZ(crypto.P256, vecMacI, vecMacR, mx, nx, vecCode, kx)
	if err != nil {
		t.Fatal(err)
	}

	otherCode, err := DeriveZ(crypto.P256, vecMacI, vecMacR, mx, nx, "someothersecret", kx)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(base, otherCode) {
		t.Error("z must depend on the code")
	}

	noMACs, err := DeriveZ(crypto.P256, nil, nil, mx, nx, vecCode, kx)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(base, noMACs) {
		t.Error("z must depend on MAC inclusion")
	}
}

func TestUnsupportedCurve(t *testing.T) {
	if _, err := DeriveQi(crypto.P384, vecCode, "", vecMacI); !errors.Is(err, ErrUnsupportedCurve) {
		t.Errorf("expected ErrUnsupportedCurve, got %v", err)
	}
	if _, err := DeriveQr(crypto.P384, vecCode, "", vecMacR); !errors.Is(err, ErrUnsupportedCurve) {
		t.Errorf("expected ErrUnsupportedCurve, got %v", err)
	}
}

func TestInputValidation(t *testing.T) {
	if _, err := DeriveQi(crypto.P256, "", "", vecMacI); !errors.Is(err, ErrEmptyCode) {
		t.Errorf("empty code: got %v", err)
	}
	if _, err := DeriveQi(crypto.P256, vecCode, "", []byte{1, 2, 3}); !errors.Is(err, ErrBadMAC) {
		t.Errorf("short MAC: got %v", err)
	}
	if _, err := DeriveZ(crypto.P256, []byte{1}, nil, nil, nil, vecCode, nil); !errors.Is(err, ErrBadMAC) {
		t.Errorf("short MAC in z: got %v", err)
	}
}

func mustGen(t *testing.T, curve crypto.CurveID) *crypto.Scalar {
	t.Helper()
	k, err := crypto.GenerateScalar(curve, nil)
	if err != nil {
		t.Fatal(err)
	}
	return k
}

func mustPub(t *testing.T, k *crypto.Scalar) *crypto.Point {
	t.Helper()
	p, err := crypto.GeneratorMul(k)
	if err != nil {
		t.Fatal(err)
	}
	return p
}
