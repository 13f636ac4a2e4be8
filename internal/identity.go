package internal

import (
	"fmt"
	"log/slog"

	"github.com/sensiblebit/amocollect"
)

// IdentitySource records where an add-on id came from.
type IdentitySource string

const (
	SourceManifest IdentitySource = "manifest"
	SourceCOSE     IdentitySource = "cose"
	SourcePKCS7    IdentitySource = "pkcs7"
)

// Identity is the resolved add-on id of one archive.
type Identity struct {
	GUID   string
	Source IdentitySource
	// Signer is set when the id was taken from a signature.
	Signer *amocollect.Signer
}

// SignatureSource pairs a signature entry name with the extractor that
// understands it.
type SignatureSource struct {
	Entry     string
	Source    IdentitySource
	Extractor amocollect.SubjectExtractor
}

// DefaultSignatureSources returns the signature containers in precedence
// order: the COSE signature first, then the legacy PKCS#7 one.
func DefaultSignatureSources() []SignatureSource {
	return []SignatureSource{
		{Entry: COSEEntry, Source: SourceCOSE, Extractor: amocollect.COSEExtractor{}},
		{Entry: PKCS7Entry, Source: SourcePKCS7, Extractor: amocollect.PKCS7Extractor{}},
	}
}

// Resolver decides the add-on id of an archive.
type Resolver struct {
	Archive ArchiveReader
	Sources []SignatureSource
}

// NewResolver returns a Resolver using DefaultSignatureSources.
func NewResolver(archive ArchiveReader) *Resolver {
	return &Resolver{Archive: archive, Sources: DefaultSignatureSources()}
}

// Resolve returns the archive's add-on id. A manifest-declared id wins
// without touching the archive. Otherwise the first signature container
// present determines the id; later containers are not read. An archive with
// neither fails with ErrUnsignedArchive.
func (r *Resolver) Resolve(archivePath string, m *Manifest) (*Identity, error) {
	if id := m.DeclaredID(); id != "" {
		slog.Debug("using declared add-on id", "archive", archivePath, "guid", id)
		return &Identity{GUID: id, Source: SourceManifest}, nil
	}

	for _, src := range r.Sources {
		data, err := ReadOptionalEntry(r.Archive, archivePath, src.Entry)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", src.Entry, err)
		}
		if data == nil {
			slog.Debug("signature entry absent", "archive", archivePath, "entry", src.Entry)
			continue
		}
		signer, err := src.Extractor.ExtractSubject(data)
		if err != nil {
			return nil, fmt.Errorf("%s:%s: %w", archivePath, src.Entry, err)
		}
		return &Identity{GUID: signer.CommonName, Source: src.Source, Signer: signer}, nil
	}

	return nil, fmt.Errorf("%s: %w", archivePath, ErrUnsignedArchive)
}
