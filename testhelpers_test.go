package amocollect

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/smallstep/pkcs7"
)

// testSigner holds an AMO-style signing chain: a root, an intermediate, and
// an end-entity certificate whose CN is the add-on id.
type testSigner struct {
	root         *x509.Certificate
	intermediate *x509.Certificate
	leaf         *x509.Certificate
	leafKey      *ecdsa.PrivateKey
}

func randomSerial(t *testing.T) *big.Int {
	t.Helper()
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		t.Fatal(err)
	}
	return serial
}

// newTestSigner generates a signing chain whose leaf CN is cn.
func newTestSigner(t *testing.T, cn string) testSigner {
	t.Helper()

	rootKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	rootTemplate := &x509.Certificate{
		SerialNumber:          randomSerial(t),
		Subject:               pkix.Name{CommonName: "test-root-ca-production-amo", Organization: []string{"Mozilla Corporation"}},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTemplate, rootTemplate, &rootKey.PublicKey, rootKey)
	if err != nil {
		t.Fatal(err)
	}
	root, err := x509.ParseCertificate(rootDER)
	if err != nil {
		t.Fatal(err)
	}

	intKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	intTemplate := &x509.Certificate{
		SerialNumber:          randomSerial(t),
		Subject:               pkix.Name{CommonName: "signingca1.addons.mozilla.org", Organization: []string{"Mozilla Corporation"}},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	intDER, err := x509.CreateCertificate(rand.Reader, intTemplate, root, &intKey.PublicKey, rootKey)
	if err != nil {
		t.Fatal(err)
	}
	intermediate, err := x509.ParseCertificate(intDER)
	if err != nil {
		t.Fatal(err)
	}

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	leafTemplate := &x509.Certificate{
		SerialNumber: randomSerial(t),
		Subject:      pkix.Name{CommonName: cn, OrganizationalUnit: []string{"Production"}},
		NotBefore:    time.Now().Add(-1 * time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTemplate, intermediate, &leafKey.PublicKey, intKey)
	if err != nil {
		t.Fatal(err)
	}
	leaf, err := x509.ParseCertificate(leafDER)
	if err != nil {
		t.Fatal(err)
	}

	return testSigner{root: root, intermediate: intermediate, leaf: leaf, leafKey: leafKey}
}

// buildMozCOSE encodes a tagged COSE_Sign message with one signature whose
// protected header carries the leaf certificate, as AMO does.
func buildMozCOSE(t *testing.T, s testSigner) []byte {
	t.Helper()
	return buildCOSEWithKID(t, s.leaf.Raw, s.intermediate.Raw, true)
}

func buildCOSEWithKID(t *testing.T, leafDER, intermediateDER []byte, tagged bool) []byte {
	t.Helper()

	bodyHeader, err := cbor.Marshal(map[int]any{coseHeaderKID: [][]byte{intermediateDER}})
	if err != nil {
		t.Fatal(err)
	}
	sigHeader := map[int]any{1: -7}
	if leafDER != nil {
		sigHeader[coseHeaderKID] = leafDER
	}
	sigProtected, err := cbor.Marshal(sigHeader)
	if err != nil {
		t.Fatal(err)
	}

	msg := coseSign{
		Protected:   bodyHeader,
		Unprotected: cbor.RawMessage{0xa0},
		Payload:     cbor.RawMessage{0xf6},
		Signatures: []coseSignature{{
			Protected:   sigProtected,
			Unprotected: cbor.RawMessage{0xa0},
			Signature:   make([]byte, 64),
		}},
	}

	var v any = msg
	if tagged {
		v = cbor.Tag{Number: coseSignTag, Content: msg}
	}
	data, err := cbor.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// buildMozRSA produces a detached PKCS#7 SignedData like META-INF/mozilla.rsa,
// signed by the leaf and carrying the intermediate.
func buildMozRSA(t *testing.T, s testSigner) []byte {
	t.Helper()
	sd, err := pkcs7.NewSignedData([]byte("Signature-Version: 1.0\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := sd.AddSigner(s.leaf, s.leafKey, pkcs7.SignerInfoConfig{}); err != nil {
		t.Fatal(err)
	}
	sd.AddCertificate(s.intermediate)
	sd.Detach()
	der, err := sd.Finish()
	if err != nil {
		t.Fatal(err)
	}
	return der
}
