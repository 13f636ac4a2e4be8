package amocollect

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ErrMalformedCOSE is returned when META-INF/cose.sig does not hold a
// COSE_Sign structure in the layout addons.mozilla.org produces.
var ErrMalformedCOSE = errors.New("malformed COSE signature")

const (
	// coseSignTag is the CBOR tag of a COSE_Sign message (RFC 8152 §4.1).
	coseSignTag = 98
	// coseHeaderKID is the "kid" header label. Mozilla stores the
	// end-entity certificate there in each signature's protected header,
	// and the intermediates in the message's protected header.
	coseHeaderKID = 4
)

// coseSign is COSE_Sign = [protected, unprotected, payload, signatures].
// The payload is detached (nil) in archive signatures.
type coseSign struct {
	_           struct{} `cbor:",toarray"`
	Protected   []byte
	Unprotected cbor.RawMessage
	Payload     cbor.RawMessage
	Signatures  []coseSignature
}

// coseSignature is COSE_Signature = [protected, unprotected, signature].
type coseSignature struct {
	_           struct{} `cbor:",toarray"`
	Protected   []byte
	Unprotected cbor.RawMessage
	Signature   []byte
}

// DecodeMozCOSE decodes a Mozilla archive COSE signature and returns the
// DER-encoded end-entity certificate of its first signature. Both tagged
// and untagged COSE_Sign messages are accepted.
func DecodeMozCOSE(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedCOSE)
	}

	content := data
	// Major type 6 is a tag.
	if data[0]>>5 == 6 {
		var tag cbor.RawTag
		if err := cbor.Unmarshal(data, &tag); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedCOSE, err)
		}
		if tag.Number != coseSignTag {
			return nil, fmt.Errorf("%w: unexpected CBOR tag %d", ErrMalformedCOSE, tag.Number)
		}
		content = tag.Content
	}

	var msg coseSign
	if err := cbor.Unmarshal(content, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCOSE, err)
	}
	if len(msg.Signatures) == 0 {
		return nil, fmt.Errorf("%w: no signatures", ErrMalformedCOSE)
	}

	var header map[int]cbor.RawMessage
	if err := cbor.Unmarshal(msg.Signatures[0].Protected, &header); err != nil {
		return nil, fmt.Errorf("%w: signature protected header: %w", ErrMalformedCOSE, err)
	}
	rawKID, ok := header[coseHeaderKID]
	if !ok {
		return nil, fmt.Errorf("%w: signature has no certificate", ErrMalformedCOSE)
	}
	var der []byte
	if err := cbor.Unmarshal(rawKID, &der); err != nil {
		return nil, fmt.Errorf("%w: signature certificate: %w", ErrMalformedCOSE, err)
	}
	if len(der) == 0 {
		return nil, fmt.Errorf("%w: signature certificate is empty", ErrMalformedCOSE)
	}
	return der, nil
}
