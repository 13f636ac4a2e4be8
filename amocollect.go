// Package amocollect provides signer identification for signed browser
// extension archives (XPI): PKCS#7 and COSE signature decoding, signer
// certificate summaries, and the content fingerprint used for synthetic
// file identifiers.
package amocollect

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	ctx509 "github.com/google/certificate-transparency-go/x509"
)

// ErrNoSignerCertificate is returned when a signature container holds no
// certificate that can be attributed to the signer.
var ErrNoSignerCertificate = errors.New("no signer certificate found")

// Signer summarizes the end-entity certificate that signed an archive. The
// certificate is described, never verified.
type Signer struct {
	CommonName   string
	Subject      string
	Issuer       string
	SerialNumber string
	NotBefore    time.Time
	NotAfter     time.Time
	// Fingerprint is the SHA-256 of the DER certificate in uppercase
	// colon-separated hex.
	Fingerprint string
}

// SignerFromCertificate builds a Signer from a parsed certificate.
func SignerFromCertificate(cert *x509.Certificate) *Signer {
	return &Signer{
		CommonName:   cert.Subject.CommonName,
		Subject:      cert.Subject.String(),
		Issuer:       cert.Issuer.String(),
		SerialNumber: cert.SerialNumber.String(),
		NotBefore:    cert.NotBefore,
		NotAfter:     cert.NotAfter,
		Fingerprint:  FingerprintColonSHA256(cert.Raw),
	}
}

// ParseSignerCertificate parses a DER certificate and returns its Signer
// summary. AMO signing certificates occasionally carry encodings that
// crypto/x509 rejects; when that happens the certificate-transparency
// parser, which reports such problems as non-fatal, is tried instead.
func ParseSignerCertificate(der []byte) (*Signer, error) {
	cert, err := x509.ParseCertificate(der)
	if err == nil {
		return SignerFromCertificate(cert), nil
	}

	lenient, ctErr := ctx509.ParseCertificate(der)
	if lenient == nil || ctx509.IsFatal(ctErr) {
		return nil, fmt.Errorf("parsing signer certificate: %w", err)
	}
	return &Signer{
		CommonName:   lenient.Subject.CommonName,
		Subject:      lenient.Subject.String(),
		Issuer:       lenient.Issuer.String(),
		SerialNumber: lenient.SerialNumber.String(),
		NotBefore:    lenient.NotBefore,
		NotAfter:     lenient.NotAfter,
		Fingerprint:  FingerprintColonSHA256(der),
	}, nil
}

// ColonHex formats a byte slice as colon-separated lowercase hex.
func ColonHex(b []byte) string {
	h := hex.EncodeToString(b)
	parts := make([]string, 0, len(h)/2)
	for i := 0; i < len(h); i += 2 {
		end := min(i+2, len(h))
		parts = append(parts, h[i:end])
	}
	return strings.Join(parts, ":")
}

// FingerprintColonSHA256 returns the SHA-256 of der in uppercase
// colon-separated hex (AA:BB:CC:...), matching the format used by OpenSSL
// and browser certificate viewers.
func FingerprintColonSHA256(der []byte) string {
	hash := sha256.Sum256(der)
	return strings.ToUpper(ColonHex(hash[:]))
}
