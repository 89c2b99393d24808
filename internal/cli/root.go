package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/teamcutter/simple-extract/internal/cache"
	"github.com/teamcutter/simple-extract/internal/config"
	"github.com/teamcutter/simple-extract/internal/domain"
	"github.com/teamcutter/simple-extract/internal/extractor"
	"github.com/teamcutter/simple-extract/internal/fetcher"
	"github.com/teamcutter/simple-extract/internal/manager"
	"github.com/teamcutter/simple-extract/internal/resolver"
)

type flags struct {
	forceDownload bool
	noClobber     bool
	quietFetch    bool
	stdout        bool
	outputDir     string
	downloadDir   string
	timeout       time.Duration
	verbose       bool
	listFormats   bool
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:     "simple-extract [flags] ARCHIVE|URL...",
		Short:   "Extract archives with the system's own tools",
		Long:    "Extract local or remote archives by picking the right external tools from the file suffix.",
		Version: versionString(),
		Args: func(cmd *cobra.Command, args []string) error {
			if f.listFormats {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.listFormats {
				printFormats(cmd.OutOrStdout(), resolver.Default())
				return nil
			}
			if f.stdout && len(args) != 1 {
				return fmt.Errorf("%w: --stdout needs exactly one archive, got %d", domain.ErrUsage, len(args))
			}
			cmd.SilenceUsage = true

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg, f)

			mgr, err := newManager(cmd, cfg, f)
			if err != nil {
				return err
			}

			outcomes, err := mgr.Run(cmd.Context(), args)
			if err != nil {
				return err
			}

			report(cmd.ErrOrStderr(), outcomes)
			if failed := domain.CountFailed(outcomes); failed > 0 {
				return fmt.Errorf("failed to extract %d archive(s)", failed)
			}
			return nil
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	fl := cmd.Flags()
	fl.BoolVarP(&f.forceDownload, "force-download", "f", false, "Download URLs even if the file already exists locally")
	fl.BoolVarP(&f.noClobber, "no-clobber", "n", false, "Never overwrite an existing destination")
	fl.BoolVarP(&f.quietFetch, "quiet-fetch", "q", false, "Suppress download progress and messages")
	fl.BoolVar(&f.quietFetch, "silent-download", false, "Alias for --quiet-fetch")
	fl.BoolVarP(&f.stdout, "stdout", "c", false, "Write the extracted stream to stdout (single archive only)")
	fl.StringVarP(&f.outputDir, "output-dir", "C", "", "Directory to extract into")
	fl.StringVar(&f.downloadDir, "download-dir", "", "Directory to save downloaded archives in")
	fl.DurationVar(&f.timeout, "timeout", 0, "HTTP timeout for downloads")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Log every stage and state change")
	fl.BoolVar(&f.listFormats, "list-formats", false, "Print the supported suffixes and their pipelines")
	_ = fl.MarkHidden("silent-download")

	return cmd
}

// applyFlags layers command line flags over the config file. Boolean switches
// can only turn a setting on.
func applyFlags(cmd *cobra.Command, cfg *config.Config, f flags) {
	cfg.ForceDownload = cfg.ForceDownload || f.forceDownload
	cfg.NoClobber = cfg.NoClobber || f.noClobber
	cfg.QuietFetch = cfg.QuietFetch || f.quietFetch

	fl := cmd.Flags()
	if fl.Changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if fl.Changed("download-dir") {
		cfg.DownloadDir = f.downloadDir
	}
	if fl.Changed("timeout") {
		cfg.FetchTimeout = f.timeout
	}
}

func newManager(cmd *cobra.Command, cfg *config.Config, f flags) (*manager.Manager, error) {
	stderr := cmd.ErrOrStderr()

	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	fetchOpts := []fetcher.Option{fetcher.WithLogger(logger)}
	if cfg.QuietFetch {
		fetchOpts = []fetcher.Option{fetcher.WithLogger(slog.New(slog.DiscardHandler))}
	} else if isTerminal(stderr) {
		fetchOpts = append(fetchOpts, fetcher.WithProgress(stderr))
	}

	c, err := cache.New(cfg.DownloadDir)
	if err != nil {
		return nil, err
	}

	runner := extractor.NewExecRunner()
	return manager.New(
		fetcher.New(cfg.DownloadDir, cfg.FetchTimeout, fetchOpts...),
		c,
		resolver.Default(),
		extractor.NewBuilder(runner, cfg.Tools),
		extractor.New(runner, logger),
		cmd.OutOrStdout(),
		logger,
		manager.Options{
			OutputDir:     cfg.OutputDir,
			ForceDownload: cfg.ForceDownload,
			NoClobber:     cfg.NoClobber,
			Stdout:        f.stdout,
		},
	), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
