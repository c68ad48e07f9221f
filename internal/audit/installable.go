// Package audit implements the web app install banner audit: whether a page's
// manifest meets the minimum requirements for a browser install prompt.
package audit

import (
	"context"
	"slices"
	"strings"

	"github.com/spboyer/pwaudit/internal/checklist"
	"github.com/spboyer/pwaudit/internal/manifest"
)

// requiredChecks gate installability, in display order.
var requiredChecks = [...]checklist.ID{
	checklist.HasName,
	checklist.HasShortName,
	checklist.HasStartURL,
	checklist.HasPWADisplayValue,
	checklist.HasIconsAtLeast192px,
}

// RequiredChecks returns the check IDs that gate installability.
func RequiredChecks() []checklist.ID {
	return slices.Clone(requiredChecks[:])
}

// IsRequired reports whether a failing id blocks installability.
func IsRequired(id checklist.ID) bool {
	return slices.Contains(requiredChecks[:], id)
}

// Meta describes the audit to report renderers.
type Meta struct {
	ID                 string   `json:"id"`
	Description        string   `json:"description"`
	FailureDescription string   `json:"failureDescription"`
	HelpText           string   `json:"helpText"`
	RequiredArtifacts  []string `json:"requiredArtifacts"`
}

// InstallBannerMeta is the metadata for the install banner audit.
var InstallBannerMeta = Meta{
	ID:                 "webapp-install-banner",
	Description:        "User can be prompted to Install the Web App",
	FailureDescription: "User will not be prompted to Install the Web App",
	HelpText: "Browsers can proactively prompt users to add your app to their homescreen, " +
		"which can lead to higher engagement. The manifest needs a name, short_name, start_url, " +
		"a standalone, fullscreen or minimal-ui display mode and a PNG icon of at least 192px.",
	RequiredArtifacts: []string{"URL", "Manifest"},
}

//go:generate go tool mockgen -source=installable.go -destination=mock_provider_test.go -package=audit

// ChecklistProvider supplies the checklist for an artifact.
// *checklist.Computer implements it.
type ChecklistProvider interface {
	Checklist(ctx context.Context, art *manifest.Artifact) (*checklist.Checklist, error)
}

// Verdict is the outcome of evaluating one manifest.
type Verdict struct {
	Passed bool
	// FailureMessages is non-empty exactly when Passed is false.
	FailureMessages []string
	// CheckResults covers every check in the checklist, required or not.
	CheckResults *CheckResults
}

// InstallabilityChecker evaluates manifests against the required checks.
type InstallabilityChecker struct {
	provider ChecklistProvider
}

// NewInstallabilityChecker creates a checker that obtains checklists from p.
func NewInstallabilityChecker(p ChecklistProvider) *InstallabilityChecker {
	return &InstallabilityChecker{provider: p}
}

// Meta returns the audit's metadata.
func (*InstallabilityChecker) Meta() Meta { return InstallBannerMeta }

// SelectFailures returns the failure text of every failing required check,
// in checklist order.
func SelectFailures(cl *checklist.Checklist) []string {
	if cl == nil {
		return nil
	}
	var failures []string
	for _, c := range cl.Checks {
		if !c.Passing && IsRequired(c.ID) {
			failures = append(failures, c.FailureText)
		}
	}
	return failures
}

// SummarizeChecks maps every check ID to whether it passed. When an ID
// repeats, the later value wins and the first position is kept.
func SummarizeChecks(cl *checklist.Checklist) *CheckResults {
	results := newCheckResults()
	if cl == nil {
		return results
	}
	for _, c := range cl.Checks {
		results.set(c.ID, c.Passing)
	}
	return results
}

// Evaluate computes the verdict for art. Errors from the checklist provider
// are returned as-is.
func (c *InstallabilityChecker) Evaluate(ctx context.Context, art *manifest.Artifact) (*Verdict, error) {
	cl, err := c.provider.Checklist(ctx, art)
	if err != nil {
		return nil, err
	}

	failures := SelectFailures(cl)
	if cl != nil && cl.IsParseFailure {
		failures = append(failures, cl.ParseFailureReason)
	}

	return &Verdict{
		Passed:          len(failures) == 0,
		FailureMessages: failures,
		CheckResults:    SummarizeChecks(cl),
	}, nil
}

// Audit evaluates art and shapes the verdict into a report product.
func (c *InstallabilityChecker) Audit(ctx context.Context, art *manifest.Artifact) (*Product, error) {
	v, err := c.Evaluate(ctx, art)
	if err != nil {
		return nil, err
	}
	return NewProduct(v), nil
}

// Explanation renders failure messages the way report consumers expect.
func Explanation(failures []string) string {
	if len(failures) == 0 {
		return ""
	}
	return "Failures: " + strings.Join(failures, ",\n") + "."
}
