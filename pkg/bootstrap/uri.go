// Package bootstrap parses and emits DPP bootstrapping URIs.
//
// A bootstrapping URI carries a peer's public bootstrapping key plus
// optional channel, MAC address, version and identification hints. It is
// usually transported as a QR code printed on the device:
//
//	DPP:C:81/1,115/36;I:SN=4774LH2b4044;M:5254005828e5;V:2;K:<base64 SPKI>;;
//
// Parsing is strict: a URI that deviates from the grammar in any way yields
// ErrInvalidURI and no partial result.
package bootstrap

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/backkem/easyconnect/pkg/crypto"
	"github.com/backkem/easyconnect/pkg/spki"
)

// URIPrefix starts every bootstrapping URI.
const URIPrefix = "DPP:"

// ErrInvalidURI is returned for every parse failure.
var ErrInvalidURI = errors.New("bootstrap: invalid URI")

// URIInfo is the parsed content of a bootstrapping URI. PublicKey is always
// present; every other field is optional.
type URIInfo struct {
	// PublicKey is the peer's bootstrapping public key (K: token).
	PublicKey *crypto.Point

	// MAC is the peer's station address, if the URI carried an M: token.
	MAC *[6]byte

	// Version is the peer's protocol version (1 or 2), 0 when absent.
	Version uint8

	// Frequencies lists the channels the peer listens on, in MHz,
	// deduplicated in URI order.
	Frequencies []uint32

	// Information is the free-form I: token (serial numbers and the like).
	Information string

	// Host is the H: token.
	Host string
}

// ParseURI parses a bootstrapping URI.
func ParseURI(uri string) (*URIInfo, error) {
	rest, ok := strings.CutPrefix(uri, URIPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrInvalidURI, URIPrefix)
	}
	if !strings.HasSuffix(rest, ";;") {
		return nil, fmt.Errorf("%w: missing \";;\" terminator", ErrInvalidURI)
	}

	// Drop the final terminator semicolon; every token, including the
	// last, now ends with a single ';'.
	tokens := strings.Split(rest[:len(rest)-1], ";")
	if tokens[len(tokens)-1] != "" {
		return nil, fmt.Errorf("%w: data after terminator", ErrInvalidURI)
	}
	tokens = tokens[:len(tokens)-1]

	info := &URIInfo{}
	seen := make(map[byte]bool)

	for _, tok := range tokens {
		if len(tok) < 3 || tok[1] != ':' {
			return nil, fmt.Errorf("%w: malformed token %q", ErrInvalidURI, tok)
		}
		letter, value := tok[0], tok[2:]
		if seen[letter] {
			return nil, fmt.Errorf("%w: duplicate token %c", ErrInvalidURI, letter)
		}
		seen[letter] = true

		var err error
		switch letter {
		case 'K':
			err = info.parseKey(value)
		case 'M':
			err = info.parseMAC(value)
		case 'V':
			err = info.parseVersion(value)
		case 'C':
			err = info.parseChannels(value)
		case 'I':
			info.Information = value
		case 'H':
			info.Host = value
		default:
			err = fmt.Errorf("%w: unknown token %c", ErrInvalidURI, letter)
		}
		if err != nil {
			return nil, err
		}
	}

	if info.PublicKey == nil {
		return nil, fmt.Errorf("%w: no public key", ErrInvalidURI)
	}
	return info, nil
}

func (u *URIInfo) parseKey(value string) error {
	der, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return fmt.Errorf("%w: bad base64 in K token", ErrInvalidURI)
	}
	pub, err := spki.Decode(der)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	u.PublicKey = pub
	return nil
}

func (u *URIInfo) parseMAC(value string) error {
	if len(value) != 12 {
		return fmt.Errorf("%w: MAC must be 12 hex digits", ErrInvalidURI)
	}
	raw, err := hex.DecodeString(value)
	if err != nil {
		return fmt.Errorf("%w: bad MAC", ErrInvalidURI)
	}

	var mac [6]byte
	copy(mac[:], raw)
	if !validStationMAC(mac) {
		return fmt.Errorf("%w: not a station MAC", ErrInvalidURI)
	}
	u.MAC = &mac
	return nil
}

// validStationMAC rejects group-addressed and all-zero addresses.
func validStationMAC(mac [6]byte) bool {
	if mac[0]&0x01 != 0 {
		return false
	}
	return mac != [6]byte{}
}

func (u *URIInfo) parseVersion(value string) error {
	switch value {
	case "1":
		u.Version = 1
	case "2":
		u.Version = 2
	default:
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidURI, value)
	}
	return nil
}

func (u *URIInfo) parseChannels(value string) error {
	seen := make(map[uint32]bool)
	for _, entry := range strings.Split(value, ",") {
		class, channel, ok := splitChannelEntry(entry)
		if !ok {
			return fmt.Errorf("%w: bad channel entry %q", ErrInvalidURI, entry)
		}
		freq, err := FreqOf(class, channel)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidURI, err)
		}
		if !seen[freq] {
			seen[freq] = true
			u.Frequencies = append(u.Frequencies, freq)
		}
	}
	return nil
}

func splitChannelEntry(entry string) (class, channel uint8, ok bool) {
	classStr, chanStr, found := strings.Cut(entry, "/")
	if !found {
		return 0, 0, false
	}
	c, ok := parseByte(classStr)
	if !ok {
		return 0, 0, false
	}
	ch, ok := parseByte(chanStr)
	if !ok {
		return 0, 0, false
	}
	return c, ch, true
}

// parseByte parses an unsigned decimal in [0, 255]. Signs, empty strings
// and non-digits are rejected; strconv is too permissive here.
func parseByte(s string) (uint8, bool) {
	if s == "" || len(s) > 3 {
		return 0, false
	}
	var v int
	for _, c := range []byte(s) {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int(c-'0')
	}
	if v > 255 {
		return 0, false
	}
	return uint8(v), true
}

// GenerateURI emits the bootstrapping URI for u. The key token comes
// first, followed by MAC, channel list, information, host and version
// tokens for whichever fields are set.
func GenerateURI(u *URIInfo) (string, error) {
	if u.PublicKey == nil {
		return "", fmt.Errorf("%w: no public key", ErrInvalidURI)
	}
	if u.Version > 2 {
		return "", fmt.Errorf("%w: unsupported version %d", ErrInvalidURI, u.Version)
	}
	der, err := spki.Encode(u.PublicKey)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(URIPrefix)
	b.WriteString("K:")
	b.WriteString(base64.StdEncoding.EncodeToString(der))
	b.WriteByte(';')

	if u.MAC != nil {
		fmt.Fprintf(&b, "M:%s;", hex.EncodeToString(u.MAC[:]))
	}
	if len(u.Frequencies) > 0 {
		b.WriteString("C:")
		for i, freq := range u.Frequencies {
			class, channel, err := ClassOf(freq)
			if err != nil {
				return "", err
			}
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%d/%d", class, channel)
		}
		b.WriteByte(';')
	}
	if u.Information != "" {
		fmt.Fprintf(&b, "I:%s;", u.Information)
	}
	if u.Host != "" {
		fmt.Fprintf(&b, "H:%s;", u.Host)
	}
	if u.Version != 0 {
		fmt.Fprintf(&b, "V:%d;", u.Version)
	}

	b.WriteByte(';')
	return b.String(), nil
}
