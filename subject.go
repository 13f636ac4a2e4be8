package amocollect

import (
	"errors"
	"fmt"
)

// ErrEmptyCommonName is returned when a signer certificate has no subject
// common name and therefore cannot identify an add-on.
var ErrEmptyCommonName = errors.New("signer certificate has no common name")

// SubjectExtractor extracts the signer of a raw signature container.
type SubjectExtractor interface {
	ExtractSubject(data []byte) (*Signer, error)
}

// COSEExtractor reads META-INF/cose.sig containers.
type COSEExtractor struct{}

// ExtractSubject implements SubjectExtractor.
func (COSEExtractor) ExtractSubject(data []byte) (*Signer, error) {
	der, err := DecodeMozCOSE(data)
	if err != nil {
		return nil, err
	}
	signer, err := ParseSignerCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("COSE signature: %w", err)
	}
	return requireCommonName(signer)
}

// PKCS7Extractor reads META-INF/mozilla.rsa containers.
type PKCS7Extractor struct{}

// ExtractSubject implements SubjectExtractor.
func (PKCS7Extractor) ExtractSubject(data []byte) (*Signer, error) {
	cert, err := PKCS7SignerCertificate(data)
	if err != nil {
		return nil, err
	}
	return requireCommonName(SignerFromCertificate(cert))
}

func requireCommonName(s *Signer) (*Signer, error) {
	if s.CommonName == "" {
		return nil, fmt.Errorf("%w (subject %q)", ErrEmptyCommonName, s.Subject)
	}
	return s, nil
}
