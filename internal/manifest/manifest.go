// Package manifest parses web app manifests captured during page load into
// the structured values that installability checks are computed from.
package manifest

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalidArtifact is returned when an artifact cannot be interpreted at all,
// e.g. because the page or manifest URL is not absolute.
var ErrInvalidArtifact = errors.New("invalid manifest artifact")

// DefaultDisplay is used when a manifest has no usable display value.
const DefaultDisplay = "browser"

var displayModes = map[string]bool{
	"fullscreen": true,
	"standalone": true,
	"minimal-ui": true,
	"browser":    true,
}

// Artifact is the manifest as captured for a page: where it came from and its
// raw, unparsed content. A nil *Artifact means no manifest was fetched.
type Artifact struct {
	DocumentURL string `json:"documentUrl"`
	ManifestURL string `json:"manifestUrl"`
	Raw         string `json:"raw"`
}

// Icon is a single entry from the manifest's icons list.
type Icon struct {
	// Src is resolved against the manifest URL.
	Src   string
	Sizes []string
	Type  string
}

// Manifest holds the parsed, normalized values of a web app manifest.
type Manifest struct {
	Name            string
	ShortName       string
	StartURL        string
	Display         string
	BackgroundColor string
	ThemeColor      string
	Icons           []Icon

	// Warnings lists recoverable problems found while parsing. Fields they
	// refer to are treated as absent.
	Warnings []string

	// ParseError is set when the raw content is not a JSON object. All other
	// fields are zero in that case.
	ParseError error
}

type rawIcon struct {
	Src   string `mapstructure:"src"`
	Sizes string `mapstructure:"sizes"`
	Type  string `mapstructure:"type"`
}

type rawManifest struct {
	Name            string    `mapstructure:"name"`
	ShortName       string    `mapstructure:"short_name"`
	StartURL        string    `mapstructure:"start_url"`
	Display         string    `mapstructure:"display"`
	BackgroundColor string    `mapstructure:"background_color"`
	ThemeColor      string    `mapstructure:"theme_color"`
	Icons           []rawIcon `mapstructure:"icons"`
}

// Parse interprets art. It only returns an error (wrapping ErrInvalidArtifact)
// when the artifact's URLs are unusable; malformed manifest content is
// reported through Manifest.ParseError and Manifest.Warnings instead.
func Parse(art *Artifact) (*Manifest, error) {
	if art == nil {
		return nil, fmt.Errorf("%w: no artifact", ErrInvalidArtifact)
	}
	docURL, err := absoluteURL(art.DocumentURL)
	if err != nil {
		return nil, fmt.Errorf("%w: document url: %w", ErrInvalidArtifact, err)
	}
	manifestURL, err := absoluteURL(art.ManifestURL)
	if err != nil {
		return nil, fmt.Errorf("%w: manifest url: %w", ErrInvalidArtifact, err)
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(art.Raw))
	if err != nil {
		return &Manifest{ParseError: err}, nil
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return &Manifest{ParseError: errors.New("manifest is not a JSON object")}, nil
	}

	m := &Manifest{}
	for _, v := range validate(obj) {
		m.Warnings = append(m.Warnings, v.String())
		prune(obj, v.Location)
	}

	var raw rawManifest
	if err := mapstructure.Decode(obj, &raw); err != nil {
		// Fields that failed to decode are left zero.
		m.Warnings = append(m.Warnings, fmt.Sprintf("decoding manifest: %v", err))
	}

	m.Name = strings.TrimSpace(raw.Name)
	m.ShortName = strings.TrimSpace(raw.ShortName)
	m.BackgroundColor = strings.TrimSpace(raw.BackgroundColor)
	m.ThemeColor = strings.TrimSpace(raw.ThemeColor)

	m.Display = strings.ToLower(strings.TrimSpace(raw.Display))
	if !displayModes[m.Display] {
		if m.Display != "" {
			m.Warnings = append(m.Warnings, fmt.Sprintf("display: unknown value %q, falling back to %q", raw.Display, DefaultDisplay))
		}
		m.Display = DefaultDisplay
	}

	startURL, warning := resolveStartURL(strings.TrimSpace(raw.StartURL), manifestURL, docURL)
	m.StartURL = startURL
	if warning != "" {
		m.Warnings = append(m.Warnings, warning)
	}

	for i, ri := range raw.Icons {
		src := strings.TrimSpace(ri.Src)
		if src == "" {
			continue
		}
		resolved, err := manifestURL.Parse(src)
		if err != nil {
			m.Warnings = append(m.Warnings, fmt.Sprintf("icons/%d/src: %v", i, err))
			continue
		}
		m.Icons = append(m.Icons, Icon{
			Src:   resolved.String(),
			Sizes: strings.Fields(strings.ToLower(ri.Sizes)),
			Type:  strings.TrimSpace(ri.Type),
		})
	}

	return m, nil
}

// IsPNG reports whether the icon is a PNG, either by declared type or, when no
// type is declared, by the extension of its source path.
func (i Icon) IsPNG() bool {
	if i.Type != "" {
		return strings.EqualFold(i.Type, "image/png")
	}
	u, err := url.Parse(i.Src)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".png")
}

func absoluteURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL", s)
	}
	return u, nil
}

func resolveStartURL(raw string, manifestURL, docURL *url.URL) (string, string) {
	if raw == "" {
		return "", "start_url: missing"
	}
	u, err := manifestURL.Parse(raw)
	if err != nil {
		return "", fmt.Sprintf("start_url: %v", err)
	}
	if u.Scheme != docURL.Scheme || u.Host != docURL.Host {
		return "", "start_url: must be same-origin as document"
	}
	return u.String(), ""
}
