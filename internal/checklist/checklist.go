// Package checklist derives the named pass/fail checks that installability
// audits are built from.
package checklist

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spboyer/pwaudit/internal/manifest"
)

// ID identifies a check. The set of IDs is fixed.
type ID string

const (
	HasStartURL          ID = "hasStartUrl"
	HasIconsAtLeast192px ID = "hasIconsAtLeast192px"
	HasIconsAtLeast512px ID = "hasIconsAtLeast512px"
	HasPWADisplayValue   ID = "hasPWADisplayValue"
	HasBackgroundColor   ID = "hasBackgroundColor"
	HasThemeColor        ID = "hasThemeColor"
	HasShortName         ID = "hasShortName"
	ShortNameLength      ID = "shortNameLength"
	HasName              ID = "hasName"
)

// MaxShortNameLength is the longest short_name shown on a homescreen without truncation.
const MaxShortNameLength = 12

// NoManifestReason is the parse failure reason when no manifest was fetched.
const NoManifestReason = "No manifest was fetched"

// Check is the outcome of one named check against a manifest.
type Check struct {
	ID      ID   `json:"id"`
	Passing bool `json:"passing"`
	// FailureText is only meaningful when Passing is false.
	FailureText string `json:"failureText,omitempty"`
}

// Checklist is the ordered set of checks computed for one manifest.
type Checklist struct {
	Checks             []Check `json:"checks"`
	IsParseFailure     bool    `json:"isParseFailure,omitempty"`
	ParseFailureReason string  `json:"parseFailureReason,omitempty"`
	// Warnings carries recoverable parser problems through for display.
	Warnings []string `json:"warnings,omitempty"`
}

// Failing returns the checks that did not pass, in checklist order.
func (c *Checklist) Failing() []Check {
	var out []Check
	for _, ch := range c.Checks {
		if !ch.Passing {
			out = append(out, ch)
		}
	}
	return out
}

type validator struct {
	id          ID
	failureText string
	test        func(*manifest.Manifest) bool
}

var validators = []validator{
	{
		id:          HasStartURL,
		failureText: "Manifest does not contain a `start_url`",
		test:        func(m *manifest.Manifest) bool { return m.StartURL != "" },
	},
	{
		id:          HasIconsAtLeast192px,
		failureText: "Manifest does not have a PNG icon of at least 192px",
		test:        func(m *manifest.Manifest) bool { return hasPNGIconAtLeast(m, 192) },
	},
	{
		id:          HasIconsAtLeast512px,
		failureText: "Manifest does not have a PNG icon of at least 512px",
		test:        func(m *manifest.Manifest) bool { return hasPNGIconAtLeast(m, 512) },
	},
	{
		id:          HasPWADisplayValue,
		failureText: "Manifest's `display` value is not one of: minimal-ui | fullscreen | standalone",
		test: func(m *manifest.Manifest) bool {
			switch m.Display {
			case "minimal-ui", "fullscreen", "standalone":
				return true
			}
			return false
		},
	},
	{
		id:          HasBackgroundColor,
		failureText: "Manifest does not have `background_color`",
		test:        func(m *manifest.Manifest) bool { return m.BackgroundColor != "" },
	},
	{
		id:          HasThemeColor,
		failureText: "Manifest does not have `theme_color`",
		test:        func(m *manifest.Manifest) bool { return m.ThemeColor != "" },
	},
	{
		id:          HasShortName,
		failureText: "Manifest does not have `short_name`",
		test:        func(m *manifest.Manifest) bool { return m.ShortName != "" },
	},
	{
		id: ShortNameLength,
		failureText: fmt.Sprintf("Manifest's `short_name` is too long (>%d characters) to be displayed on a homescreen without truncation",
			MaxShortNameLength),
		test: func(m *manifest.Manifest) bool {
			return m.ShortName != "" && utf8.RuneCountInString(m.ShortName) <= MaxShortNameLength
		},
	},
	{
		id:          HasName,
		failureText: "Manifest does not have `name`",
		test:        func(m *manifest.Manifest) bool { return m.Name != "" },
	},
}

// IDs returns every check ID in the order Derive reports them.
func IDs() []ID {
	ids := make([]ID, len(validators))
	for i, v := range validators {
		ids[i] = v.id
	}
	return ids
}

// Derive computes the checklist for art. A nil artifact or unparseable
// manifest produces a parse-failure checklist rather than an error; only an
// artifact that cannot be interpreted at all is an error.
func Derive(art *manifest.Artifact) (*Checklist, error) {
	if art == nil {
		return &Checklist{IsParseFailure: true, ParseFailureReason: NoManifestReason}, nil
	}

	m, err := manifest.Parse(art)
	if err != nil {
		return nil, err
	}
	if m.ParseError != nil {
		return &Checklist{
			IsParseFailure:     true,
			ParseFailureReason: fmt.Sprintf("Failed to parse manifest: %v", m.ParseError),
		}, nil
	}

	cl := &Checklist{
		Checks:   make([]Check, 0, len(validators)),
		Warnings: m.Warnings,
	}
	for _, v := range validators {
		c := Check{ID: v.id, Passing: v.test(m)}
		if !c.Passing {
			c.FailureText = v.failureText
		}
		cl.Checks = append(cl.Checks, c)
	}
	return cl, nil
}

func hasPNGIconAtLeast(m *manifest.Manifest, minSize int) bool {
	for _, icon := range m.Icons {
		if !icon.IsPNG() {
			continue
		}
		for _, size := range icon.Sizes {
			if n, ok := squareSize(size); ok && n >= minSize {
				return true
			}
		}
	}
	return false
}

// squareSize parses a "WxH" size token, accepting it only when W == H.
func squareSize(s string) (int, bool) {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return 0, false
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return 0, false
	}
	height, err := strconv.Atoi(h)
	if err != nil || width != height {
		return 0, false
	}
	return width, true
}
