package main

import (
	"fmt"
	"path/filepath"

	"github.com/spboyer/pwaudit/internal/cache"
	"github.com/spboyer/pwaudit/internal/projectconfig"
	"github.com/spf13/cobra"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the manifest checklist cache",
		Long: `Manage the manifest checklist cache.

The cache stores derived checklists so repeated audits of the same manifest
skip parsing. Entries are keyed by document URL, manifest URL and manifest
content.`,
	}

	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheClearCommand() *cobra.Command {
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the manifest checklist cache",
		Long: `Clear all cached checklists.

The next audit re-derives every checklist from the manifest content.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("cache-dir") {
				cfg, err := projectconfig.Load(".")
				if err != nil {
					return err
				}
				cacheDir = cfg.Cache.Dir
			}
			return cacheClear(cmd, cacheDir)
		},
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", projectconfig.DefaultCacheDir, "Cache directory to clear")

	return cmd
}

func cacheClear(cmd *cobra.Command, dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving cache directory: %w", err)
	}

	c := cache.New(absDir)
	if err := c.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", absDir) //nolint:errcheck
	return nil
}
