package reporting

import (
	"context"
	"testing"

	"github.com/spboyer/pwaudit/internal/audit"
	"github.com/spboyer/pwaudit/internal/checklist"
	"github.com/spboyer/pwaudit/internal/manifest"
	"github.com/stretchr/testify/require"
)

type fixedProvider struct {
	cl *checklist.Checklist
}

func (p fixedProvider) Checklist(context.Context, *manifest.Artifact) (*checklist.Checklist, error) {
	return p.cl, nil
}

func newEntry(t *testing.T, name string, cl *checklist.Checklist) Entry {
	t.Helper()
	v, err := audit.NewInstallabilityChecker(fixedProvider{cl: cl}).Evaluate(context.Background(), nil)
	require.NoError(t, err)
	return Entry{Name: name, Checklist: cl, Verdict: v}
}

func installableChecklist() *checklist.Checklist {
	cl := &checklist.Checklist{}
	for _, id := range checklist.IDs() {
		cl.Checks = append(cl.Checks, checklist.Check{ID: id, Passing: true})
	}
	cl.Checks[5] = checklist.Check{ID: checklist.HasThemeColor, FailureText: "Manifest does not have `theme_color`"}
	return cl
}

func brokenChecklist() *checklist.Checklist {
	return &checklist.Checklist{
		Checks: []checklist.Check{
			{ID: checklist.HasStartURL, FailureText: "Manifest does not contain a `start_url`"},
			{ID: checklist.HasThemeColor, FailureText: "Manifest does not have `theme_color`"},
			{ID: checklist.HasName, Passing: true},
		},
		Warnings: []string{"start_url: missing"},
	}
}
