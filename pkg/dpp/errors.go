package dpp

import (
	"errors"

	"github.com/backkem/easyconnect/pkg/attr"
	"github.com/backkem/easyconnect/pkg/auth"
	"github.com/backkem/easyconnect/pkg/bootstrap"
	"github.com/backkem/easyconnect/pkg/configobj"
	"github.com/backkem/easyconnect/pkg/crypto"
	"github.com/backkem/easyconnect/pkg/pkex"
	"github.com/backkem/easyconnect/pkg/spki"
)

// Kind partitions the library's errors into the four classes a host state
// machine reacts to differently: malformed peer input is a protocol error,
// unsupported parameters may warrant a capability downgrade, a crypto
// verification failure aborts the exchange, and resource exhaustion is a
// local condition.
type Kind int

const (
	// KindUnknown is returned for errors that did not originate here.
	KindUnknown Kind = iota

	// KindMalformedInput covers URI grammar, ASN.1, JSON and TLV damage.
	KindMalformedInput

	// KindUnsupportedParameter covers unknown curves, operating classes
	// and AKM suites. URI parse failures, an unsupported V: version
	// included, are reported as ErrInvalidURI and classify as
	// KindMalformedInput.
	KindUnsupportedParameter

	// KindCryptoVerifyFailure covers SIV tag mismatches, off-curve points,
	// out-of-range scalars and degenerate ECDH results. Terminal for the
	// session that produced it.
	KindCryptoVerifyFailure

	// KindResourceExhaustion covers allocator and entropy failures.
	KindResourceExhaustion
)

var kindTable = []struct {
	err  error
	kind Kind
}{
	{bootstrap.ErrInvalidURI, KindMalformedInput},
	{spki.ErrMalformed, KindMalformedInput},
	{attr.ErrTruncated, KindMalformedInput},
	{attr.ErrValueTooLarge, KindMalformedInput},
	{attr.ErrNoWrappedData, KindMalformedInput},
	{configobj.ErrMalformed, KindMalformedInput},
	{configobj.ErrWifiTech, KindMalformedInput},
	{configobj.ErrBadSSID, KindMalformedInput},
	{configobj.ErrNoCredential, KindMalformedInput},
	{configobj.ErrBadPSK, KindMalformedInput},
	{crypto.ErrInvalidPointData, KindMalformedInput},
	{ErrFrameTooShort, KindMalformedInput},
	{ErrNotEasyConnect, KindMalformedInput},
	{ErrTranscriptIncomplete, KindMalformedInput},
	{ErrTranscriptNonce, KindMalformedInput},

	{crypto.ErrUnsupportedCurve, KindUnsupportedParameter},
	{crypto.ErrUnsupportedKeyLen, KindUnsupportedParameter},
	{spki.ErrUnknownAlgorithm, KindUnsupportedParameter},
	{spki.ErrUnknownCurve, KindUnsupportedParameter},
	{bootstrap.ErrUnknownChannel, KindUnsupportedParameter},
	{bootstrap.ErrUnknownFrequency, KindUnsupportedParameter},
	{configobj.ErrNoKnownAKM, KindUnsupportedParameter},
	{pkex.ErrUnsupportedCurve, KindUnsupportedParameter},
	{ErrCryptoSuite, KindUnsupportedParameter},

	{crypto.ErrSIVAuthFailed, KindCryptoVerifyFailure},
	{crypto.ErrInvalidPoint, KindCryptoVerifyFailure},
	{crypto.ErrInvalidScalar, KindCryptoVerifyFailure},
	{crypto.ErrPointAtInfinity, KindCryptoVerifyFailure},
	{crypto.ErrCurveMismatch, KindCryptoVerifyFailure},
	{auth.ErrBadNonce, KindCryptoVerifyFailure},
	{auth.ErrBadSecret, KindCryptoVerifyFailure},
	{auth.ErrCurveMismatch, KindCryptoVerifyFailure},
	{ErrTranscriptCurve, KindCryptoVerifyFailure},
}

// KindOf classifies an error returned by any package of this module.
func KindOf(err error) Kind {
	for _, entry := range kindTable {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return KindUnknown
}
