// dpp-tool generates and decodes Easy Connect bootstrapping material.
//
// Generate a fresh bootstrapping key and its URI:
//
//	dpp-tool -gen [-curve p256|p384] [-mac 5254005828e5] [-freq 2412,5180] [-info SN=1234] [-version 2]
//
// Decode a URI (for example from a scanned QR code):
//
//	dpp-tool -parse 'DPP:K:...;;'
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/backkem/easyconnect/pkg/bootstrap"
	"github.com/backkem/easyconnect/pkg/crypto"
)

func main() {
	var (
		gen     = flag.Bool("gen", false, "generate a bootstrapping key and URI")
		parse   = flag.String("parse", "", "bootstrapping URI to decode")
		curve   = flag.String("curve", "p256", "curve for -gen (p256 or p384)")
		mac     = flag.String("mac", "", "station MAC as 12 hex digits")
		freqs   = flag.String("freq", "", "comma-separated listen frequencies in MHz")
		info    = flag.String("info", "", "information token")
		host    = flag.String("host", "", "host token")
		version = flag.Uint("version", 0, "protocol version (1 or 2)")
	)
	flag.Parse()

	switch {
	case *gen:
		generate(*curve, *mac, *freqs, *info, *host, *version)
	case *parse != "":
		parseURI(*parse)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func generate(curveName, mac, freqs, info, host string, version uint) {
	var curve crypto.CurveID
	switch strings.ToLower(curveName) {
	case "p256":
		curve = crypto.P256
	case "p384":
		curve = crypto.P384
	default:
		log.Fatalf("Unknown curve %q", curveName)
	}

	priv, err := crypto.GenerateScalar(curve, nil)
	if err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}
	pub, err := crypto.GeneratorMul(priv)
	if err != nil {
		log.Fatalf("Failed to derive public key: %v", err)
	}

	uriInfo := &bootstrap.URIInfo{
		PublicKey:   pub,
		Information: info,
		Host:        host,
		Version:     uint8(version),
	}
	if mac != "" {
		raw, err := hex.DecodeString(mac)
		if err != nil || len(raw) != 6 {
			log.Fatalf("MAC must be 12 hex digits")
		}
		var addr [6]byte
		copy(addr[:], raw)
		uriInfo.MAC = &addr
	}
	for _, f := range strings.Split(freqs, ",") {
		if f == "" {
			continue
		}
		mhz, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			log.Fatalf("Bad frequency %q", f)
		}
		uriInfo.Frequencies = append(uriInfo.Frequencies, uint32(mhz))
	}

	uri, err := bootstrap.GenerateURI(uriInfo)
	if err != nil {
		log.Fatalf("Failed to generate URI: %v", err)
	}

	fmt.Printf("curve:       %s\n", curve)
	fmt.Printf("private key: %x\n", priv.Bytes())
	fmt.Printf("uri:         %s\n", uri)
}

func parseURI(uri string) {
	info, err := bootstrap.ParseURI(uri)
	if err != nil {
		log.Fatalf("Failed to parse URI: %v", err)
	}

	fmt.Printf("curve:      %s\n", info.PublicKey.Curve())
	fmt.Printf("public key: %x\n", info.PublicKey.Bytes(crypto.PointSEC1))
	if info.MAC != nil {
		m := info.MAC
		fmt.Printf("mac:        %02x:%02x:%02x:%02x:%02x:%02x\n", m[0], m[1], m[2], m[3], m[4], m[5])
	}
	if info.Version != 0 {
		fmt.Printf("version:    %d\n", info.Version)
	}
	if len(info.Frequencies) > 0 {
		fmt.Printf("frequencies:")
		for _, f := range info.Frequencies {
			fmt.Printf(" %d", f)
		}
		fmt.Println(" MHz")
	}
	if info.Information != "" {
		fmt.Printf("info:       %s\n", info.Information)
	}
	if info.Host != "" {
		fmt.Printf("host:       %s\n", info.Host)
	}
}
