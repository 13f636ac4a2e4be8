package internal

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Manifest holds the fields of an extension's manifest.json that the
// collection needs. Unknown fields are ignored.
type Manifest struct {
	Version     string `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description"`

	BrowserSpecificSettings *geckoSettings `json:"browser_specific_settings,omitempty"`
	// Applications is the legacy spelling of BrowserSpecificSettings.
	Applications *geckoSettings `json:"applications,omitempty"`
}

type geckoSettings struct {
	Gecko *struct {
		ID string `json:"id"`
	} `json:"gecko,omitempty"`
}

func (s *geckoSettings) id() string {
	if s == nil || s.Gecko == nil {
		return ""
	}
	return s.Gecko.ID
}

// DeclaredID returns the add-on id from browser_specific_settings.gecko.id,
// falling back to applications.gecko.id. Empty when neither is set.
func (m *Manifest) DeclaredID() string {
	if id := m.BrowserSpecificSettings.id(); id != "" {
		return id
	}
	return m.Applications.id()
}

// commentPattern matches a line that ends in a // comment outside of any
// double-quoted string. Group 1 is everything before the comment. This is
// the pattern Firefox applies to manifest.json. Escape sequences the pattern
// does not model (e.g. a string that ends in an escaped backslash followed
// by an unbalanced quote) can still be misread, as in Firefox. Unlike
// JavaScript, Go's . also matches \r, so a CRLF comment line loses its CR;
// the decoded manifest is the same.
var commentPattern = regexp.MustCompile(`(?m)^((?:[^"\n]|"(?:[^"\\\n]|\\.)*")*?)//.*`)

// ParseManifest decodes manifest.json text. Strict JSON is tried first;
// only if that fails are trailing // line comments stripped and the decode
// retried. A failed retry wraps ErrManifestParse.
func ParseManifest(text []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(text, &m); err == nil {
		return &m, nil
	}

	m = Manifest{}
	if err := json.Unmarshal(StripLineComments(text), &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestParse, err)
	}
	return &m, nil
}

// StripLineComments removes // comments that appear outside quoted strings,
// leaving the rest of each line intact.
func StripLineComments(text []byte) []byte {
	return commentPattern.ReplaceAll(text, []byte("$1"))
}
