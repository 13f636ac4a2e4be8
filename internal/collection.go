package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// LoadedArchive is one archive after its manifest and identity are known.
type LoadedArchive struct {
	Path     string
	Data     []byte
	Manifest *Manifest
	Identity *Identity
}

// LoadArchive reads an archive from disk, parses its manifest and resolves
// its add-on id. Errors name the archive path.
func LoadArchive(path string, archive ArchiveReader, resolver *Resolver) (*LoadedArchive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	manifestData, err := archive.ReadEntry(path, ManifestEntry)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	manifest, err := ParseManifest(manifestData)
	if err != nil {
		return nil, fmt.Errorf("%s:%s: %w", path, ManifestEntry, err)
	}

	identity, err := resolver.Resolve(path, manifest)
	if err != nil {
		return nil, fmt.Errorf("resolving add-on id: %w", err)
	}
	slog.Info("resolved add-on identity", "archive", path, "guid", identity.GUID, "source", identity.Source)

	return &LoadedArchive{Path: path, Data: data, Manifest: manifest, Identity: identity}, nil
}

// Addon builds the collection record for a loaded archive.
func (a *LoadedArchive) Addon(mode LocatorMode) Addon {
	return BuildAddon(BuildAddonInput{
		FileName:    filepath.Base(a.Path),
		Data:        a.Data,
		GUID:        a.Identity.GUID,
		Version:     a.Manifest.Version,
		Name:        a.Manifest.Name,
		Description: a.Manifest.Description,
		Mode:        mode,
	})
}

// GenerateInput holds the parameters for GenerateCollection.
type GenerateInput struct {
	Paths    []string
	Mode     LocatorMode
	Archive  ArchiveReader
	Resolver *Resolver
}

// GenerateCollection processes archives strictly in input order and returns
// the assembled collection. The first failure aborts the run; no partial
// collection is returned.
func GenerateCollection(in GenerateInput) (*Collection, error) {
	addons := make([]Addon, 0, len(in.Paths))
	for _, path := range in.Paths {
		slog.Info("reading archive", "archive", path)
		loaded, err := LoadArchive(path, in.Archive, in.Resolver)
		if err != nil {
			return nil, err
		}
		addons = append(addons, loaded.Addon(in.Mode))
	}
	collection := BuildCollection(addons)
	return &collection, nil
}

// MarshalCollection serializes a collection as two-space indented JSON
// without HTML escaping or a trailing newline.
func MarshalCollection(c *Collection) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("marshaling collection: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// WriteCollection serializes c and writes it to path.
func WriteCollection(path string, c *Collection) error {
	data, err := MarshalCollection(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	slog.Info("collection written", "path", path, "addons", c.Count)
	return nil
}
