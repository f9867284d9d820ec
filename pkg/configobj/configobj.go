// Package configobj parses and emits the DPP configuration object: the
// JSON credential payload a configurator delivers to an enrollee once the
// authenticated channel is up.
//
// The schema is small and strict:
//
//	{
//	  "wi-fi_tech": "infra",
//	  "discovery":  { "ssid": "MyNetwork" },
//	  "cred":       { "akm": "psk+sae", "pass": "secret" },
//	  "net.easyconnect": { "send_hostname": true, "hidden": false }
//	}
//
// Exactly one of "pass" and "psk" must appear in the credential. The
// vendor-extension object is optional.
package configobj

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

// VendorNamespace is the key of the optional vendor-extension object.
const VendorNamespace = "net.easyconnect"

// AKMSuite is a bitset of recognised authentication and key management
// suites.
type AKMSuite uint32

const (
	// AKMSuitePSK is WPA2-Personal (pre-shared key).
	AKMSuitePSK AKMSuite = 1 << iota

	// AKMSuiteSAE is WPA3-Personal (simultaneous authentication of equals).
	AKMSuiteSAE

	// AKMSuiteFTPSK is Fast Transition with a pre-shared key.
	AKMSuiteFTPSK

	// AKMSuiteFTSAE is Fast Transition with SAE.
	AKMSuiteFTSAE
)

// akmTokens maps AKM sub-tokens to suite bits, in emission order.
var akmTokens = []struct {
	token string
	suite AKMSuite
}{
	{"psk", AKMSuitePSK},
	{"sae", AKMSuiteSAE},
	{"ft-psk", AKMSuiteFTPSK},
	{"ft-sae", AKMSuiteFTSAE},
}

// Errors for configuration-object parsing.
var (
	ErrMalformed      = errors.New("configobj: malformed configuration object")
	ErrWifiTech       = errors.New("configobj: wi-fi_tech must be \"infra\"")
	ErrBadSSID        = errors.New("configobj: ssid must be 1-32 bytes")
	ErrNoCredential   = errors.New("configobj: exactly one of pass and psk required")
	ErrBadPSK         = errors.New("configobj: psk must be 64 hex characters")
	ErrNoKnownAKM     = errors.New("configobj: no recognised akm suite")
)

// Configuration is a parsed credential payload.
type Configuration struct {
	// SSID is the network name, 1 to 32 bytes.
	SSID []byte

	// AKMSuites holds the recognised suites from the akm string.
	AKMSuites AKMSuite

	// Passphrase is the WPA passphrase. Mutually exclusive with PSK.
	Passphrase string

	// PSK is the pre-computed pairwise master key as 64 hex characters.
	PSK string

	// SendHostname asks the station to include its hostname in DHCP.
	SendHostname bool

	// Hidden marks the network as not broadcasting its SSID.
	Hidden bool
}

// Wire structures. RawMessage keeps unknown top-level keys from failing
// the parse while still letting the vendor object be located by name.
type wireConfig struct {
	WifiTech  string         `json:"wi-fi_tech"`
	Discovery *wireDiscovery `json:"discovery"`
	Cred      *wireCred      `json:"cred"`
}

type wireDiscovery struct {
	SSID string `json:"ssid"`
}

type wireCred struct {
	AKM  string  `json:"akm"`
	Pass *string `json:"pass,omitempty"`
	PSK  *string `json:"psk,omitempty"`
}

type wireVendor struct {
	SendHostname *bool `json:"send_hostname,omitempty"`
	Hidden       *bool `json:"hidden,omitempty"`
}

// Parse decodes and validates a configuration object.
func Parse(data []byte) (*Configuration, error) {
	var wire wireConfig
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, ErrMalformed
	}
	if wire.WifiTech != "infra" {
		return nil, ErrWifiTech
	}
	if wire.Discovery == nil || wire.Cred == nil {
		return nil, ErrMalformed
	}

	ssid := []byte(wire.Discovery.SSID)
	if len(ssid) < 1 || len(ssid) > 32 {
		return nil, ErrBadSSID
	}

	suites, err := parseAKM(wire.Cred.AKM)
	if err != nil {
		return nil, err
	}

	config := &Configuration{
		SSID:      ssid,
		AKMSuites: suites,
	}

	switch {
	case wire.Cred.Pass != nil && wire.Cred.PSK != nil:
		return nil, ErrNoCredential
	case wire.Cred.Pass != nil:
		config.Passphrase = *wire.Cred.Pass
	case wire.Cred.PSK != nil:
		if err := validatePSK(*wire.Cred.PSK); err != nil {
			return nil, err
		}
		config.PSK = *wire.Cred.PSK
	default:
		return nil, ErrNoCredential
	}

	if err := parseVendor(data, config); err != nil {
		return nil, err
	}
	return config, nil
}

func parseVendor(data []byte, config *Configuration) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return ErrMalformed
	}
	raw, ok := top[VendorNamespace]
	if !ok {
		return nil
	}

	var vendor wireVendor
	// A wrong type for either boolean fails the whole parse.
	if err := json.Unmarshal(raw, &vendor); err != nil {
		return ErrMalformed
	}
	if vendor.SendHostname != nil {
		config.SendHostname = *vendor.SendHostname
	}
	if vendor.Hidden != nil {
		config.Hidden = *vendor.Hidden
	}
	return nil
}

// parseAKM splits the akm string on '+' and collects the recognised suite
// bits. Unknown sub-tokens are ignored, but the result must be non-empty.
func parseAKM(akm string) (AKMSuite, error) {
	var suites AKMSuite
	for _, token := range strings.Split(akm, "+") {
		for _, known := range akmTokens {
			if token == known.token {
				suites |= known.suite
			}
		}
	}
	if suites == 0 {
		return 0, ErrNoKnownAKM
	}
	return suites, nil
}

func validatePSK(psk string) error {
	if len(psk) != 64 {
		return ErrBadPSK
	}
	if _, err := hex.DecodeString(psk); err != nil {
		return ErrBadPSK
	}
	return nil
}

// akmString rebuilds the akm token string from the suite bits.
func (c *Configuration) akmString() string {
	var tokens []string
	for _, known := range akmTokens {
		if c.AKMSuites&known.suite != 0 {
			tokens = append(tokens, known.token)
		}
	}
	return strings.Join(tokens, "+")
}

// ToJSON emits the configuration object. Parse(ToJSON(c)) yields a value
// equal to c; key order and whitespace are unspecified.
func (c *Configuration) ToJSON() ([]byte, error) {
	if len(c.SSID) < 1 || len(c.SSID) > 32 {
		return nil, ErrBadSSID
	}
	if c.AKMSuites == 0 {
		return nil, ErrNoKnownAKM
	}
	if (c.Passphrase == "") == (c.PSK == "") {
		return nil, ErrNoCredential
	}
	if c.PSK != "" {
		if err := validatePSK(c.PSK); err != nil {
			return nil, err
		}
	}

	cred := &wireCred{AKM: c.akmString()}
	if c.Passphrase != "" {
		cred.Pass = &c.Passphrase
	} else {
		cred.PSK = &c.PSK
	}

	top := map[string]interface{}{
		"wi-fi_tech": "infra",
		"discovery":  &wireDiscovery{SSID: string(c.SSID)},
		"cred":       cred,
	}
	if c.SendHostname || c.Hidden {
		vendor := &wireVendor{}
		if c.SendHostname {
			t := true
			vendor.SendHostname = &t
		}
		if c.Hidden {
			t := true
			vendor.Hidden = &t
		}
		top[VendorNamespace] = vendor
	}

	return json.Marshal(top)
}
