package bootstrap

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/backkem/easyconnect/pkg/crypto"
)

const testKeyB64 = "MDkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDIgADURzxmttZoIRIPWGoQMV00XHWCAQIhXruVWOz0NjlkIA="

const fullURI = "DPP:C:81/1,115/36;I:SN=4774LH2b4044;M:5254005828e5;V:2;K:" + testKeyB64 + ";;"

func TestParseURIFull(t *testing.T) {
	info, err := ParseURI(fullURI)
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}

	if info.PublicKey == nil || info.PublicKey.Curve() != crypto.P256 {
		t.Error("expected a P-256 public key")
	}
	if info.MAC == nil || *info.MAC != [6]byte{0x52, 0x54, 0x00, 0x58, 0x28, 0xe5} {
		t.Errorf("MAC = %v, want 52:54:00:58:28:e5", info.MAC)
	}
	if info.Version != 2 {
		t.Errorf("Version = %d, want 2", info.Version)
	}
	if !reflect.DeepEqual(info.Frequencies, []uint32{2412, 5180}) {
		t.Errorf("Frequencies = %v, want [2412 5180]", info.Frequencies)
	}
	if info.Information != "SN=4774LH2b4044" {
		t.Errorf("Information = %q", info.Information)
	}
	if info.Host != "" {
		t.Errorf("Host = %q, want empty", info.Host)
	}
}

func TestParseURIMinimal(t *testing.T) {
	info, err := ParseURI("DPP:K:" + testKeyB64 + ";;")
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}
	if info.PublicKey == nil {
		t.Fatal("no public key")
	}
	if info.MAC != nil || info.Version != 0 || info.Frequencies != nil {
		t.Error("optional fields must stay unset")
	}
}

func TestParseURIRejects(t *testing.T) {
	cases := []struct {
		name string
		uri  string
	}{
		{"Empty", ""},
		{"PrefixOnly", "DPP:"},
		{"WrongPrefix", "MT:K:" + testKeyB64 + ";;"},
		{"LowercasePrefix", "dpp:K:" + testKeyB64 + ";;"},
		{"NoTerminator", "DPP:K:" + testKeyB64},
		{"SingleTerminator", "DPP:K:" + testKeyB64 + ";"},
		{"DataAfterTerminator", "DPP:K:" + testKeyB64 + ";;C:81/1;;"},
		{"TrailingBytes", "DPP:K:" + testKeyB64 + ";; "},
		{"UnknownToken", "DPP:Z:1;K:" + testKeyB64 + ";;"},
		{"MissingKey", "DPP:C:81/1;V:2;;"},
		{"EmptyKey", "DPP:K:;;"},
		{"BadBase64", "DPP:K:!!!!;;"},
		{"BadSPKI", "DPP:K:AAAA;;"},
		{"DuplicateToken", "DPP:V:2;V:2;K:" + testKeyB64 + ";;"},
		{"BadVersion", "DPP:V:3;K:" + testKeyB64 + ";;"},
		{"VersionZero", "DPP:V:0;K:" + testKeyB64 + ";;"},
		{"MACTooShort", "DPP:M:525400;K:" + testKeyB64 + ";;"},
		{"MACWithColons", "DPP:M:52:54:00:58:28:e5;K:" + testKeyB64 + ";;"},
		{"MACNotHex", "DPP:M:5254005828zz;K:" + testKeyB64 + ";;"},
		{"MACMulticast", "DPP:M:0154005828e5;K:" + testKeyB64 + ";;"},
		{"MACZero", "DPP:M:000000000000;K:" + testKeyB64 + ";;"},
		{"EmptyChannelList", "DPP:C:;K:" + testKeyB64 + ";;"},
		{"ChannelNoSlash", "DPP:C:81;K:" + testKeyB64 + ";;"},
		{"ChannelMissing", "DPP:C:81/;K:" + testKeyB64 + ";;"},
		{"TrailingComma", "DPP:C:81/1,;K:" + testKeyB64 + ";;"},
		{"EmptyEntry", "DPP:C:81/1,/;K:" + testKeyB64 + ";;"},
		{"SignedClass", "DPP:C:+81/1;K:" + testKeyB64 + ";;"},
		{"NegativeChannel", "DPP:C:81/-1;K:" + testKeyB64 + ";;"},
		{"NonNumeric", "DPP:C:81/x;K:" + testKeyB64 + ";;"},
		{"UnknownClass", "DPP:C:99/1;K:" + testKeyB64 + ";;"},
		{"UnknownChannel", "DPP:C:81/14;K:" + testKeyB64 + ";;"},
		{"HugeClass", "DPP:C:1000/1;K:" + testKeyB64 + ";;"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info, err := ParseURI(tc.uri)
			if !errors.Is(err, ErrInvalidURI) {
				t.Errorf("expected ErrInvalidURI, got %v", err)
			}
			if info != nil {
				t.Error("no partial structure may be returned")
			}
		})
	}
}

func TestParseURIDeduplicatesFrequencies(t *testing.T) {
	// 124/149 and 125/149 are the same 5745 MHz channel.
	info, err := ParseURI("DPP:C:81/1,81/1,124/149,125/149;K:" + testKeyB64 + ";;")
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}
	if !reflect.DeepEqual(info.Frequencies, []uint32{2412, 5745}) {
		t.Errorf("Frequencies = %v, want [2412 5745]", info.Frequencies)
	}
}

func TestGenerateURIOrder(t *testing.T) {
	info, err := ParseURI(fullURI)
	if err != nil {
		t.Fatal(err)
	}
	info.Host = "example.local"

	uri, err := GenerateURI(info)
	if err != nil {
		t.Fatalf("GenerateURI: %v", err)
	}

	if !strings.HasPrefix(uri, "DPP:K:") {
		t.Errorf("K token must come first: %q", uri)
	}
	if !strings.HasSuffix(uri, ";;") {
		t.Errorf("missing terminator: %q", uri)
	}
	order := []string{"K:", "M:", "C:", "I:", "H:", "V:"}
	last := -1
	for _, tok := range order {
		i := strings.Index(uri, ";"+tok)
		if tok == "K:" {
			i = strings.Index(uri, ":"+tok)
		}
		if i < 0 {
			t.Fatalf("token %q missing from %q", tok, uri)
		}
		if i < last {
			t.Errorf("token %q out of order in %q", tok, uri)
		}
		last = i
	}
}

func TestURIRoundTrip(t *testing.T) {
	priv, err := crypto.GenerateScalar(crypto.P256, nil)
	if err != nil {
		t.Fatal(err)
	}
	pub, err := crypto.GeneratorMul(priv)
	if err != nil {
		t.Fatal(err)
	}

	mac := [6]byte{0x02, 0x00, 0x5e, 0x10, 0x20, 0x30}
	cases := []*URIInfo{
		{PublicKey: pub},
		{PublicKey: pub, Version: 1},
		{PublicKey: pub, MAC: &mac, Version: 2},
		{PublicKey: pub, Frequencies: []uint32{2412, 5180, 5745}},
		{PublicKey: pub, MAC: &mac, Version: 2, Frequencies: []uint32{2462},
			Information: "SN=0042", Host: "10.0.0.1"},
	}

	for _, want := range cases {
		uri, err := GenerateURI(want)
		if err != nil {
			t.Fatalf("GenerateURI: %v", err)
		}
		got, err := ParseURI(uri)
		if err != nil {
			t.Fatalf("ParseURI(%q): %v", uri, err)
		}
		if !got.PublicKey.Equal(want.PublicKey) {
			t.Error("public key changed in round trip")
		}
		got.PublicKey, want.PublicKey = nil, nil
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip mismatch:\n got: %+v\nwant: %+v", got, want)
		}
		want.PublicKey = pub
	}
}
