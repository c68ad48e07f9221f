package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spboyer/pwaudit/internal/audit"
	"github.com/spboyer/pwaudit/internal/cache"
	"github.com/spboyer/pwaudit/internal/checklist"
	"github.com/spboyer/pwaudit/internal/manifest"
	"github.com/spboyer/pwaudit/internal/projectconfig"
	"github.com/spboyer/pwaudit/internal/reporting"
	"github.com/spboyer/pwaudit/internal/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// missingName labels the entry audited by --missing.
const missingName = "(no manifest)"

type auditOptions struct {
	documentURL string
	manifestURL string
	format      string
	cacheDir    string
	cache       bool
	noCache     bool
	missing     bool
}

func newAuditCommand() *cobra.Command {
	opts := &auditOptions{}

	cmd := &cobra.Command{
		Use:   "audit [manifest.json ...]",
		Short: "Audit web app manifests for installability",
		Long: `Audit one or more web app manifests against the install banner requirements.

Each argument is a manifest file; "-" reads the manifest from stdin. Manifests
are audited concurrently and reported in argument order. The manifest URL
defaults to manifest.json resolved against the document URL.

Use --missing to audit a page for which no manifest was fetched.

Exit status is 1 when any manifest is not installable and 2 when an audit
could not run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.documentURL, "document-url", "", "URL of the page that links the manifest")
	f.StringVar(&opts.manifestURL, "manifest-url", "", "URL the manifest was fetched from (default: <document-url>/manifest.json)")
	f.StringVarP(&opts.format, "format", "f", projectconfig.DefaultFormat, "Output format: "+strings.Join(projectconfig.Formats, ", "))
	f.StringVar(&opts.cacheDir, "cache-dir", projectconfig.DefaultCacheDir, "Directory for cached checklists")
	f.BoolVar(&opts.cache, "cache", false, "Cache derived checklists on disk")
	f.BoolVar(&opts.noCache, "no-cache", false, "Disable the checklist cache even if configured")
	f.BoolVar(&opts.missing, "missing", false, "Also audit the case where no manifest was fetched")
	cmd.MarkFlagsMutuallyExclusive("cache", "no-cache")

	return cmd
}

// auditTarget is one manifest to audit. A nil art means no manifest was fetched.
type auditTarget struct {
	name string
	art  *manifest.Artifact
}

func runAudit(cmd *cobra.Command, opts *auditOptions, args []string) error {
	if len(args) == 0 && !opts.missing {
		return errors.New("at least one manifest file or --missing is required")
	}

	cfg, err := projectconfig.Load(".")
	if err != nil {
		return err
	}
	applyConfig(cmd, opts, cfg)

	if !slices.Contains(projectconfig.Formats, opts.format) {
		return fmt.Errorf("unsupported format %q: must be one of %s", opts.format, strings.Join(projectconfig.Formats, ", "))
	}

	targets, err := loadTargets(cmd.InOrStdin(), opts, args)
	if err != nil {
		return err
	}

	var computerOpts []checklist.ComputerOption
	if opts.cache && !opts.noCache {
		absDir, err := filepath.Abs(opts.cacheDir)
		if err != nil {
			return fmt.Errorf("resolving cache directory: %w", err)
		}
		slog.Debug("checklist cache enabled", "dir", absDir)
		computerOpts = append(computerOpts, checklist.WithStore(cache.New(absDir)))
	}
	computer := checklist.NewComputer(computerOpts...)
	checker := audit.NewInstallabilityChecker(computer)

	stopSpinner := func() {}
	if errOut := cmd.ErrOrStderr(); isTerminal(errOut) {
		stopSpinner = spinner.Start(errOut, fmt.Sprintf("Auditing %d manifest(s)", len(targets)))
	}

	entries := make([]reporting.Entry, len(targets))
	g, ctx := errgroup.WithContext(cmd.Context())
	for i, t := range targets {
		g.Go(func() error {
			entries[i] = auditOne(ctx, computer, checker, t)
			return nil
		})
	}
	err = g.Wait()
	stopSpinner()
	if err != nil {
		return err
	}

	if err := writeReport(cmd.OutOrStdout(), opts.format, entries); err != nil {
		return err
	}

	return auditResult(entries)
}

// applyConfig fills options the user did not set on the command line from
// the project configuration.
func applyConfig(cmd *cobra.Command, opts *auditOptions, cfg *projectconfig.ProjectConfig) {
	f := cmd.Flags()
	if !f.Changed("format") {
		opts.format = cfg.Output.Format
	}
	if !f.Changed("cache-dir") {
		opts.cacheDir = cfg.Cache.Dir
	}
	if !f.Changed("cache") {
		opts.cache = cfg.CacheEnabled()
	}
	if !f.Changed("document-url") {
		opts.documentURL = cfg.Audit.DocumentURL
	}
	if !f.Changed("manifest-url") {
		opts.manifestURL = cfg.Audit.ManifestURL
	}
}

func loadTargets(stdin io.Reader, opts *auditOptions, args []string) ([]auditTarget, error) {
	var targets []auditTarget

	if len(args) > 0 {
		if opts.documentURL == "" {
			return nil, errors.New("--document-url is required when auditing manifest files")
		}
		manifestURL := opts.manifestURL
		if manifestURL == "" {
			u, err := defaultManifestURL(opts.documentURL)
			if err != nil {
				return nil, err
			}
			manifestURL = u
		}

		readStdin := false
		for _, path := range args {
			var (
				data []byte
				err  error
			)
			if path == "-" {
				if readStdin {
					return nil, errors.New(`"-" may only be given once`)
				}
				readStdin = true
				data, err = io.ReadAll(stdin)
			} else {
				data, err = os.ReadFile(path)
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			targets = append(targets, auditTarget{
				name: path,
				art: &manifest.Artifact{
					DocumentURL: opts.documentURL,
					ManifestURL: manifestURL,
					Raw:         string(data),
				},
			})
		}
	}

	if opts.missing {
		targets = append(targets, auditTarget{name: missingName})
	}
	return targets, nil
}

func defaultManifestURL(documentURL string) (string, error) {
	doc, err := url.Parse(documentURL)
	if err != nil || !doc.IsAbs() {
		return "", fmt.Errorf("--document-url must be an absolute URL, got %q", documentURL)
	}
	return doc.ResolveReference(&url.URL{Path: "manifest.json"}).String(), nil
}

func auditOne(ctx context.Context, computer *checklist.Computer, checker *audit.InstallabilityChecker, t auditTarget) reporting.Entry {
	slog.Debug("auditing manifest", "name", t.name)

	entry := reporting.Entry{Name: t.name}
	cl, err := computer.Checklist(ctx, t.art)
	if err != nil {
		entry.Err = err
		return entry
	}
	// The checker asks the same computer, which answers from memory.
	v, err := checker.Evaluate(ctx, t.art)
	if err != nil {
		entry.Err = err
		return entry
	}
	entry.Checklist = cl
	entry.Verdict = v
	return entry
}

// jsonReport is the document written by --format json.
type jsonReport struct {
	Audit   string       `json:"audit"`
	Results []jsonResult `json:"results"`
}

type jsonResult struct {
	Path string `json:"path"`
	*audit.Product
	Error string `json:"error,omitempty"`
}

func writeReport(w io.Writer, format string, entries []reporting.Entry) error {
	switch format {
	case "json":
		report := jsonReport{Audit: audit.InstallBannerMeta.ID, Results: make([]jsonResult, 0, len(entries))}
		for _, e := range entries {
			r := jsonResult{Path: e.Name}
			if e.Err != nil {
				r.Error = e.Err.Error()
			} else {
				r.Product = audit.NewProduct(e.Verdict)
			}
			report.Results = append(report.Results, r)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "junit":
		return reporting.WriteJUnitXML(w, entries, time.Now())
	default:
		_, err := io.WriteString(w, reporting.FormatSummaryReport(entries, glyphsFor(w)))
		return err
	}
}

// glyphsFor picks Unicode markers for terminals and ASCII ones otherwise.
func glyphsFor(w io.Writer) reporting.Glyphs {
	if isTerminal(w) {
		return reporting.UnicodeGlyphs
	}
	return reporting.ASCIIGlyphs
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func auditResult(entries []reporting.Entry) error {
	var errs []error
	failed := 0
	for _, e := range entries {
		switch {
		case e.Err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", e.Name, e.Err))
		case !e.Verdict.Passed:
			failed++
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d manifest(s) could not be audited: %w", len(errs), errors.Join(errs...))
	}
	if failed > 0 {
		return &AuditFailureError{
			Message: fmt.Sprintf("%d of %d manifest(s) not installable", failed, len(entries)),
		}
	}
	return nil
}
