package internal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/klauspost/compress/zip"
)

// Well-known entries of a signed XPI archive.
const (
	ManifestEntry = "manifest.json"
	COSEEntry     = "META-INF/cose.sig"
	PKCS7Entry    = "META-INF/mozilla.rsa"
)

// ArchiveReader returns the bytes of one named entry inside an archive.
// A missing entry is reported as ErrEntryNotFound.
type ArchiveReader interface {
	ReadEntry(archivePath, entryName string) ([]byte, error)
}

// ReadOptionalEntry reads an entry that may legitimately be absent. It
// returns (nil, nil) for ErrEntryNotFound and passes every other error on.
func ReadOptionalEntry(r ArchiveReader, archivePath, entryName string) ([]byte, error) {
	data, err := r.ReadEntry(archivePath, entryName)
	if errors.Is(err, ErrEntryNotFound) {
		return nil, nil
	}
	return data, err
}

// ArchiveLimits controls zip bomb protection thresholds.
type ArchiveLimits struct {
	// MaxDecompressionRatio is the maximum allowed ratio of uncompressed to
	// compressed size for a single ZIP entry. A ratio of 100 means a 1KB
	// compressed entry may decompress to at most 100KB.
	MaxDecompressionRatio int64

	// MaxEntrySize is the maximum allowed size of a single decompressed entry.
	MaxEntrySize int64
}

// DefaultArchiveLimits returns conservative defaults for entry extraction.
// Manifests and signatures are a few kilobytes at most.
func DefaultArchiveLimits() ArchiveLimits {
	return ArchiveLimits{
		MaxDecompressionRatio: 100,
		MaxEntrySize:          10 * 1024 * 1024, // 10 MB
	}
}

// ZipReader reads entries from XPI archives on disk. Each call opens the
// archive afresh; no state is kept between calls.
type ZipReader struct {
	Limits ArchiveLimits
}

// NewZipReader returns a ZipReader enforcing the given limits.
func NewZipReader(limits ArchiveLimits) *ZipReader {
	return &ZipReader{Limits: limits}
}

// ReadEntry implements ArchiveReader. Entry names match exactly, as stored
// in the ZIP central directory.
func (r *ZipReader) ReadEntry(archivePath, entryName string) ([]byte, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", archivePath, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("closing archive", "archive", archivePath, "error", closeErr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive %s: %w", archivePath, err)
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive %s: %w", archivePath, err)
	}

	for _, zf := range zr.File {
		if zf.Name != entryName || zf.FileInfo().IsDir() {
			continue
		}
		if err := r.checkLimits(zf); err != nil {
			return nil, fmt.Errorf("%s:%s: %w", archivePath, entryName, err)
		}
		data, err := readZipEntry(zf, r.Limits.MaxEntrySize)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", archivePath, err)
		}
		slog.Debug("read archive entry", "archive", archivePath, "entry", entryName, "size", len(data))
		return data, nil
	}
	return nil, fmt.Errorf("%s:%s: %w", archivePath, entryName, ErrEntryNotFound)
}

// checkLimits rejects entries whose header claims exceed the limits.
func (r *ZipReader) checkLimits(f *zip.File) error {
	if f.CompressedSize64 > 0 {
		ratio := int64(f.UncompressedSize64 / f.CompressedSize64)
		if ratio > r.Limits.MaxDecompressionRatio {
			return fmt.Errorf("%w: decompression ratio %d exceeds %d", ErrEntryTooLarge, ratio, r.Limits.MaxDecompressionRatio)
		}
	}
	if f.UncompressedSize64 > uint64(r.Limits.MaxEntrySize) {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrEntryTooLarge, f.UncompressedSize64, r.Limits.MaxEntrySize)
	}
	return nil
}

// readZipEntry reads the contents of a ZIP file entry with an enforced size
// limit via io.LimitReader, regardless of what the ZIP header claims.
func readZipEntry(f *zip.File, maxSize int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening ZIP entry %s: %w", f.Name, err)
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil {
			slog.Warn("closing ZIP entry", "entry", f.Name, "error", closeErr)
		}
	}()

	limited := io.LimitReader(rc, safeLimitSize(maxSize))
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("reading ZIP entry %s: %w", f.Name, err)
	}

	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("ZIP entry %s: %w (%d bytes)", f.Name, ErrEntryTooLarge, maxSize)
	}

	return data, nil
}

// safeLimitSize returns maxSize+1 for overflow detection in io.LimitReader,
// clamped to math.MaxInt64 to prevent int64 wraparound.
func safeLimitSize(maxSize int64) int64 {
	if maxSize == math.MaxInt64 {
		return math.MaxInt64
	}
	return maxSize + 1
}
