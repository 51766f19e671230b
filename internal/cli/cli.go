package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/net/html/charset"

	"github.com/pfrederiksen/vols1365/internal/config"
	"github.com/pfrederiksen/vols1365/internal/logger"
	"github.com/pfrederiksen/vols1365/internal/pipeline"
	"github.com/pfrederiksen/vols1365/internal/scraper"
	"github.com/pfrederiksen/vols1365/internal/storage"
)

const (
	// ExitSuccess is the process exit code for a completed command.
	ExitSuccess = 0
	// ExitError is the process exit code for any failure.
	ExitError = 1
)

var (
	flagConfig   string
	flagEnvFile  string
	flagDataDir  string
	flagDebugDir string
	flagFormat   string
	flagVerbose  bool
	flagSort     string
	flagLimit    int
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vols-fetch",
		Short: "Collect 1365 volunteer listings into a JSON snapshot",
		Long: `Collects volunteer programs from the 1365 listing API, enriches them with
recruit and applied headcounts scraped from each program's detail page, and
writes a sorted snapshot plus an enrichment cache.

Settings come from environment variables (SERVICE_KEY, SIDO_CODE, KEYWORD,
...), an optional .env file and an optional YAML file given with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runFetch,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML file of KEY: value settings")
	cmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "dotenv file (default .env when present)")
	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Directory for 1365.json and the cache (overrides DATA_DIR)")
	cmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
	cmd.Flags().StringVar(&flagDebugDir, "debug-dir", "", "Directory for raw response dumps (overrides DEBUG_DIR)")

	cmd.AddCommand(newShowCmd(), newExtractCmd(), newKeyCmd())
	return cmd
}

func outputFormat() (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}
	return format, nil
}

func setupLogger(level string) {
	lvl := logger.ParseLevel(level)
	if flagVerbose {
		lvl = logger.LevelDebug
	}
	logger.SetDefault(logger.New(lvl, os.Stderr))
}

// runFetch is the main command logic
func runFetch(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.Options{
		ConfigFile: flagConfig,
		EnvFile:    flagEnvFile,
	})
	if err != nil {
		return err
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagDebugDir != "" {
		cfg.DebugDir = flagDebugDir
	}
	setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.Run(ctx, cfg, pipeline.Endpoints{})
	if err != nil {
		return err
	}

	if err := WriteResult(cmd.OutOrStdout(), result, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Summarize the current snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}
			order := SortOrder(strings.ToLower(flagSort))
			if !order.Valid() {
				return fmt.Errorf("invalid sort: %s (must be notice, title, recruit or applied)", flagSort)
			}

			dir := flagDataDir
			if dir == "" {
				dir, err = config.DataDir(config.Options{ConfigFile: flagConfig, EnvFile: flagEnvFile})
				if err != nil {
					return fmt.Errorf("loading configuration: %w", err)
				}
			}
			store, err := storage.New(dir)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}
			snap, err := store.LoadSnapshot()
			if err != nil {
				return err
			}

			sortRecords(snap.Items, order)
			return WriteSnapshot(cmd.OutOrStdout(), snap, format, flagVerbose, flagLimit)
		},
	}
	cmd.Flags().StringVar(&flagSort, "sort", string(SortByNoticeEnd), "Sort order: notice, title, recruit or applied")
	cmd.Flags().IntVar(&flagLimit, "limit", 20, "Maximum records to list (0 = all)")
	return cmd
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract headcounts from a saved detail page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}
			counts, err := extractFile(args[0])
			if err != nil {
				return err
			}
			return WriteCounts(cmd.OutOrStdout(), counts, format)
		},
	}
}

// extractFile reads a saved detail page, transcoding it to UTF-8 according
// to its meta charset.
func extractFile(path string) (scraper.Counts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scraper.Counts{}, fmt.Errorf("reading page: %w", err)
	}
	r, err := charset.NewReader(bytes.NewReader(data), "text/html")
	if err != nil {
		return scraper.Counts{}, fmt.Errorf("decoding page: %w", err)
	}
	page, err := io.ReadAll(r)
	if err != nil {
		return scraper.Counts{}, fmt.Errorf("decoding page: %w", err)
	}
	return scraper.ExtractCounts(string(page)), nil
}

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the SERVICE_KEY stored in the OS keyring",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <value>",
			Short: "Store the API service key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.StoreServiceKey(args[0]); err != nil {
					return fmt.Errorf("storing service key: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Service key stored.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Remove the stored API service key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.DeleteServiceKey(); err != nil {
					return fmt.Errorf("deleting service key: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Service key deleted.")
				return nil
			},
		},
	)
	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}
