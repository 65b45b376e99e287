package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/webscraper/internal/config"
	"github.com/nao1215/webscraper/internal/database"
	"github.com/nao1215/webscraper/internal/fetch"
	"github.com/nao1215/webscraper/internal/log"
	"github.com/nao1215/webscraper/internal/model"
	"github.com/nao1215/webscraper/internal/pipeline"
	"github.com/nao1215/webscraper/internal/report"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [target-url]",
		Short: "Scan a web page for external resources and a linked page",
		Long: `Scan fetches the target page and:
- exports its externally hosted resources to external_resources.json
- enumerates its hyperlinks
- finds the hyperlink whose text matches --link-text, ignoring case
- fetches the linked page and exports the word frequency of its visible
  text to word_frequency.json

When no hyperlink matches, a message is printed and the remaining steps are
skipped; this is not an error.

Examples:
  # Scan the default target
  webscraper scan

  # Scan another site and write the files to ./out
  webscraper scan --output-dir out https://www.example.com

  # Look for a different link and print every hyperlink
  webscraper scan --link-text "terms of use" --print-links https://www.example.com

  # Output a Markdown summary to a file
  webscraper scan --markdown -o summary.md https://www.example.com

Configuration file (.webscraper) example:
  target: "https://www.example.com"
  outputDir: "out"
  sites:
    www.example.com:
      cookie: "consent=yes"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScanCmd,
	}

	// Search flags
	cmd.Flags().StringP("link-text", "l", config.DefaultLinkText,
		"Text of the hyperlink to follow (case-insensitive)")
	cmd.Flags().Bool("print-links", false,
		"Print the destination of every hyperlink")
	cmd.Flags().Bool("export-links", false,
		"Also export hyperlinks to hyperlinks.json")

	// Request flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with requests")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:1080)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum number of response body bytes to read")

	// Output flags
	cmd.Flags().StringP("output-dir", "d", config.DefaultOutputDir,
		"Directory for the exported JSON files")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write summary to specified file path (creates directories if needed)")
	cmd.Flags().IntP("top", "n", config.DefaultTopWords,
		"Number of most frequent words listed in the summary")

	// Configuration and history
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webscraper in current or home directory)")
	cmd.Flags().Bool("no-db", false,
		"Do not save the run to the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, file, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScan(ctx, cfg, file, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the
// configuration file. Flags set on the command line win over the file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, *config.File, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.LinkText, err = flags.GetString("link-text"); err != nil {
		return nil, nil, err
	}
	if cfg.PrintLinks, err = flags.GetBool("print-links"); err != nil {
		return nil, nil, err
	}
	if cfg.ExportLinks, err = flags.GetBool("export-links"); err != nil {
		return nil, nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, nil, err
	}
	if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
		return nil, nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, nil, err
	}
	if cfg.TopWords, err = flags.GetInt("top"); err != nil {
		return nil, nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, nil, err
	}
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, nil, err
	}
	cfg.SaveToDB = !noDB
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if len(args) > 0 {
		cfg.TargetURL = args[0]
	}

	// An explicit --config that does not exist is an error; a missing
	// default file just means no file.
	file := &config.File{
		Headers: make(map[string]string),
		Sites:   make(map[string]config.SiteConfig),
	}
	if path := config.FindConfigFile(cfg.ConfigFilePath); path != "" {
		file, err = config.LoadConfigFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if cfg.ConfigFilePath != "" {
		return nil, nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	file.Apply(cfg, func(name string) bool {
		if name == "target" {
			return len(args) > 0
		}
		return flags.Changed(name)
	})

	return cfg, file, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// Cookies, tokens and signed query strings are masked in the output.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	return log.NewSecureLogger(w, verbose)
}

// newFetcher builds the page fetcher for cfg. Host-specific headers from
// file are added per request.
func newFetcher(cfg *config.Config, file *config.File) (*fetch.Fetcher, error) {
	client, err := fetch.NewClient(cfg.Timeout, cfg.ProxyAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	opts := []fetch.Option{
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithHeaders(cfg.Headers),
	}
	if file != nil && len(file.Sites) > 0 {
		opts = append(opts, fetch.WithSiteHeaders(file.RequestHeaders))
	}
	return fetch.NewFetcher(client, opts...), nil
}

// runScan executes one run and prints its summary.
// stdout receives the export confirmations and the summary; stderr
// receives the not-found message.
func runScan(ctx context.Context, cfg *config.Config, file *config.File, stdout, stderr io.Writer, logger *slog.Logger) error {
	logger.Info("starting scan",
		"target", cfg.TargetURL,
		"linkText", cfg.LinkText,
		"outputDir", cfg.OutputDir,
		"saveToDB", cfg.SaveToDB,
	)
	if len(cfg.Headers) > 0 {
		logger.Debug("request headers", log.Headers(cfg.Headers))
	}

	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	fetcher, err := newFetcher(cfg, file)
	if err != nil {
		return err
	}

	p := pipeline.DefaultPipeline(fetcher,
		[]pipeline.Option{pipeline.WithLogger(logger)},
		pipeline.WithPipelineOutputDir(cfg.OutputDir),
		pipeline.WithPipelineRules(cfg.Resources),
		pipeline.WithPipelineStdout(stdout),
		pipeline.WithPipelinePrintLinks(cfg.PrintLinks),
		pipeline.WithPipelineExportLinks(cfg.ExportLinks),
		pipeline.WithPipelineLogger(logger),
	)

	scanReport := model.NewReport(cfg.TargetURL, cfg.LinkText)
	startTime := time.Now()
	runErr := p.Execute(ctx, scanReport)
	logger.Info("scan finished",
		"target", cfg.TargetURL,
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)

	if runErr == nil && !scanReport.PolicyFound {
		fmt.Fprintf(stderr, "Could not find a valid link to a %s!\n", cfg.LinkText)
	}

	// Failed runs are kept too so the history shows when a site went down.
	if err := saveRun(ctx, db, scanReport, logger); err != nil {
		logger.Error("failed to save run", "target", cfg.TargetURL, "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("scan failed: %w", runErr)
	}

	return outputReport(cfg, scanReport, stdout)
}

// saveRun saves the report to the database if enabled.
// If db is nil, this function is a no-op.
func saveRun(ctx context.Context, db *database.HistoryDB, r *model.Report, logger *slog.Logger) error {
	if db == nil {
		return nil
	}
	// An interrupted run is still saved.
	if errors.Is(ctx.Err(), context.Canceled) {
		ctx = context.WithoutCancel(ctx)
	}
	id, err := db.SaveRun(ctx, r)
	if err != nil {
		return err
	}
	logger.Info("run saved to database", "target", r.TargetURL, "id", id)
	return nil
}

// outputReport writes the run summary in the requested format.
func outputReport(cfg *config.Config, r *model.Report, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output, report.WithMarkdownTopWords(cfg.TopWords))
	default:
		writer = report.NewSimpleWriter(output,
			report.WithTopWords(cfg.TopWords),
			report.WithVerbose(cfg.Verbose),
		)
	}

	if _, err := writer.Write(r); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
