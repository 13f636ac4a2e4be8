package internal

import "errors"

// Sentinel errors for collection generation. Use errors.Is in callers.
var (
	// ErrEntryNotFound means the archive has no entry with the requested name.
	ErrEntryNotFound = errors.New("archive entry not found")
	// ErrEntryTooLarge means an entry exceeds the configured ArchiveLimits.
	ErrEntryTooLarge = errors.New("archive entry exceeds size limits")
	// ErrManifestParse means manifest.json is not valid JSON even after
	// stripping line comments.
	ErrManifestParse = errors.New("invalid manifest.json")
	// ErrUnsignedArchive means the archive declares no add-on id and carries
	// no signature to derive one from. Unsigned add-ons cannot be installed.
	ErrUnsignedArchive = errors.New("unsigned add-on archive")
)
