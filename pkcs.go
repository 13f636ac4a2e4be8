package amocollect

import (
	"crypto/x509"
	"fmt"

	"github.com/smallstep/pkcs7"
)

// PKCS7SignerCertificate returns the certificate of the single signer of a
// DER-encoded PKCS#7 SignedData structure, as found in META-INF/mozilla.rsa.
// When the signer info cannot be matched to an embedded certificate (or
// there is no signer info at all) the first non-CA certificate is used.
func PKCS7SignerCertificate(derData []byte) (*x509.Certificate, error) {
	p7, err := pkcs7.Parse(derData)
	if err != nil {
		return nil, fmt.Errorf("parsing PKCS#7: %w", err)
	}
	if signer := p7.GetOnlySigner(); signer != nil {
		return signer, nil
	}
	for _, cert := range p7.Certificates {
		if !cert.IsCA {
			return cert, nil
		}
	}
	return nil, fmt.Errorf("PKCS#7 signature: %w", ErrNoSignerCertificate)
}
