package internal

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zip"
	"github.com/smallstep/pkcs7"
)

// testSigner holds an AMO-style signing chain whose leaf CN is an add-on id.
type testSigner struct {
	intermediate *x509.Certificate
	leaf         *x509.Certificate
	leafKey      *ecdsa.PrivateKey
}

// newTestSigner generates an intermediate CA and a leaf with CommonName cn.
func newTestSigner(t *testing.T, cn string) testSigner {
	t.Helper()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate CA key: %v", err)
	}
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "signingca1.addons.mozilla.org"},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTmpl, caTmpl, &caKey.PublicKey, caKey)
	if err != nil {
		t.Fatalf("create CA cert: %v", err)
	}
	ca, err := x509.ParseCertificate(caDER)
	if err != nil {
		t.Fatalf("parse CA cert: %v", err)
	}

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate leaf key: %v", err)
	}
	leafTmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-1 * time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTmpl, ca, &leafKey.PublicKey, caKey)
	if err != nil {
		t.Fatalf("create leaf cert: %v", err)
	}
	leaf, err := x509.ParseCertificate(leafDER)
	if err != nil {
		t.Fatalf("parse leaf cert: %v", err)
	}

	return testSigner{intermediate: ca, leaf: leaf, leafKey: leafKey}
}

// coseSig encodes a tagged COSE_Sign message as META-INF/cose.sig, with the
// leaf certificate in the signature's protected header.
func (s testSigner) coseSig(t *testing.T) []byte {
	t.Helper()

	type signature struct {
		_           struct{} `cbor:",toarray"`
		Protected   []byte
		Unprotected map[int]any
		Signature   []byte
	}
	type message struct {
		_           struct{} `cbor:",toarray"`
		Protected   []byte
		Unprotected map[int]any
		Payload     any
		Signatures  []signature
	}

	bodyHeader, err := cbor.Marshal(map[int]any{4: [][]byte{s.intermediate.Raw}})
	if err != nil {
		t.Fatal(err)
	}
	sigHeader, err := cbor.Marshal(map[int]any{1: -7, 4: s.leaf.Raw})
	if err != nil {
		t.Fatal(err)
	}
	data, err := cbor.Marshal(cbor.Tag{Number: 98, Content: message{
		Protected:   bodyHeader,
		Unprotected: map[int]any{},
		Payload:     nil,
		Signatures: []signature{{
			Protected:   sigHeader,
			Unprotected: map[int]any{},
			Signature:   make([]byte, 64),
		}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// mozillaRSA produces a detached PKCS#7 SignedData as META-INF/mozilla.rsa.
func (s testSigner) mozillaRSA(t *testing.T) []byte {
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

// manifestJSON renders a manifest.json. An empty id omits the
// browser_specific_settings block.
func manifestJSON(id, version, name, description string) []byte {
	if id == "" {
		return fmt.Appendf(nil, `{
  "manifest_version": 2,
  "name": %q,
  "version": %q,
  "description": %q
}`, name, version, description)
	}
	return fmt.Appendf(nil, `{
  "manifest_version": 2,
  "name": %q,
  "version": %q,
  "description": %q,
  "browser_specific_settings": {"gecko": {"id": %q}}
}`, name, version, description, id)
}

// createTestZip builds an in-memory ZIP archive from name -> content, in
// sorted name order so the bytes are reproducible.
func createTestZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}
		if _, err := fw.Write(files[name]); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	return buf.Bytes()
}

// writeTestXPI writes a ZIP archive to dir/name and returns its path.
func writeTestXPI(t *testing.T, dir, name string, files map[string][]byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, createTestZip(t, files), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// mapArchive is an in-memory ArchiveReader that records every entry read.
type mapArchive struct {
	entries map[string][]byte
	reads   []string
}

func (m *mapArchive) ReadEntry(archivePath, entryName string) ([]byte, error) {
	m.reads = append(m.reads, entryName)
	data, ok := m.entries[entryName]
	if !ok {
		return nil, fmt.Errorf("%s:%s: %w", archivePath, entryName, ErrEntryNotFound)
	}
	return data, nil
}
