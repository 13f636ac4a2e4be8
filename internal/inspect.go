package internal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sensiblebit/amocollect"
	"gopkg.in/yaml.v3"
)

// InspectResult holds the inspection details for one archive.
type InspectResult struct {
	Path    string         `json:"path" yaml:"path"`
	GUID    string         `json:"guid" yaml:"guid"`
	Source  IdentitySource `json:"id_source" yaml:"id_source"`
	Version string         `json:"version" yaml:"version"`
	Name    string         `json:"name" yaml:"name"`
	Size    int            `json:"size" yaml:"size"`
	FileID  uint32         `json:"file_id" yaml:"file_id"`
	Signer  *InspectSigner `json:"signer,omitempty" yaml:"signer,omitempty"`
}

// InspectSigner describes the signing certificate of a signature-derived id.
type InspectSigner struct {
	Subject   string `json:"subject" yaml:"subject"`
	Issuer    string `json:"issuer" yaml:"issuer"`
	Serial    string `json:"serial" yaml:"serial"`
	NotBefore string `json:"not_before" yaml:"not_before"`
	NotAfter  string `json:"not_after" yaml:"not_after"`
	SHA256    string `json:"sha256_fingerprint" yaml:"sha256_fingerprint"`
}

// InspectArchives loads each archive and summarizes its identity. Like
// GenerateCollection it stops at the first failing archive.
func InspectArchives(paths []string, archive ArchiveReader, resolver *Resolver) ([]InspectResult, error) {
	results := make([]InspectResult, 0, len(paths))
	for _, path := range paths {
		loaded, err := LoadArchive(path, archive, resolver)
		if err != nil {
			return nil, err
		}
		results = append(results, inspectArchive(loaded))
	}
	return results, nil
}

func inspectArchive(a *LoadedArchive) InspectResult {
	r := InspectResult{
		Path:    a.Path,
		GUID:    a.Identity.GUID,
		Source:  a.Identity.Source,
		Version: a.Manifest.Version,
		Name:    a.Manifest.Name,
		Size:    len(a.Data),
		FileID:  amocollect.ContentHash(a.Data),
	}
	if s := a.Identity.Signer; s != nil {
		r.Signer = &InspectSigner{
			Subject:   s.Subject,
			Issuer:    s.Issuer,
			Serial:    s.SerialNumber,
			NotBefore: s.NotBefore.UTC().Format(time.RFC3339),
			NotAfter:  s.NotAfter.UTC().Format(time.RFC3339),
			SHA256:    s.Fingerprint,
		}
	}
	return r
}

// FormatInspectResults formats inspection results as text, JSON, or YAML.
func FormatInspectResults(results []InspectResult, format string) (string, error) {
	switch format {
	case "text":
		return formatInspectText(results), nil
	case "json":
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshaling JSON: %w", err)
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal(results)
		if err != nil {
			return "", fmt.Errorf("marshaling YAML: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use text, json, or yaml)", format)
	}
}

func formatInspectText(results []InspectResult) string {
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s:\n", r.Path)
		fmt.Fprintf(&sb, "  GUID:        %s (from %s)\n", r.GUID, r.Source)
		fmt.Fprintf(&sb, "  Name:        %s\n", r.Name)
		fmt.Fprintf(&sb, "  Version:     %s\n", r.Version)
		fmt.Fprintf(&sb, "  Size:        %d\n", r.Size)
		fmt.Fprintf(&sb, "  File ID:     %d\n", r.FileID)
		if r.Signer != nil {
			fmt.Fprintf(&sb, "  Signer:\n")
			fmt.Fprintf(&sb, "    Subject:     %s\n", r.Signer.Subject)
			fmt.Fprintf(&sb, "    Issuer:      %s\n", r.Signer.Issuer)
			fmt.Fprintf(&sb, "    Serial:      %s\n", r.Signer.Serial)
			fmt.Fprintf(&sb, "    Not Before:  %s\n", r.Signer.NotBefore)
			fmt.Fprintf(&sb, "    Not After:   %s\n", r.Signer.NotAfter)
			fmt.Fprintf(&sb, "    SHA-256:     %s\n", r.Signer.SHA256)
		}
	}
	return sb.String()
}
