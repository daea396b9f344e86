package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"isef-scraper/config"
	"isef-scraper/metrics"
	"isef-scraper/models"
	"isef-scraper/scraper/isef"
	"isef-scraper/services"
	"isef-scraper/storage"
	"isef-scraper/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps each command-line flag onto its configuration key
var flagKeys = map[string]string{
	"year":               "year",
	"category":           "category",
	"base-url":           "base_url",
	"headless":           "headless",
	"user-agent":         "user_agent",
	"wait-timeout":       "wait_timeout",
	"pagination-timeout": "pagination_timeout",
	"detail-timeout":     "detail_timeout",
	"poll-interval":      "poll_interval",
	"submit-settle":      "submit_settle",
	"detail-settle":      "detail_settle",
	"record-policy":      "record_policy",
	"max-retries":        "max_retries",
	"retry-delay":        "retry_delay",
	"rate-limit-delay":   "rate_limit_delay",
	"output-dir":         "output_dir",
	"format":             "format",
	"database-url":       "database_url",
	"metrics-file":       "metrics_file",
	"preview":            "preview_rows",
	"log-level":          "log_level",
	"log-format":         "log_format",
}

// NewRootCommand builds the scraper command with its own viper instance
func NewRootCommand() *cobra.Command {
	v := viper.New()
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "isef-scraper [--year 2024] [--category \"Physics and Astronomy\"]",
		Short: "isef-scraper exports the winning ISEF project abstracts of one year and category.",
		Long: `isef-scraper drives a headless browser through the Society for Science abstracts
search, expands the results table, visits every project page and writes the merged
records to isef_<year>_<category>.csv.

Every flag can also be set with an ISEF_ environment variable, e.g. ISEF_YEAR=2023,
or in a .env file in the working directory.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.Int("year", def.Year, "ISEF year to search (2014-2025)")
	flags.String("category", def.Category, "project category, exactly as labelled on the search form")
	flags.String("base-url", def.BaseURL, "abstracts search page")
	flags.Bool("headless", def.Headless, "run the browser without a window")
	flags.String("user-agent", def.UserAgent, "browser user agent")
	flags.Duration("wait-timeout", def.WaitTimeout, "bound on each search form wait")
	flags.Duration("pagination-timeout", def.PaginationTimeout, "bound on expanding the results table")
	flags.Duration("detail-timeout", def.DetailTimeout, "bound on a detail page rendering")
	flags.Duration("poll-interval", def.PollInterval, "how often waits re-check the page")
	flags.Duration("submit-settle", def.SubmitSettle, "pause after the results table appears")
	flags.Duration("detail-settle", def.DetailSettle, "pause after a detail page renders")
	flags.String("record-policy", def.RecordPolicy, "on a failed detail page: skip the project or degrade to listing data (skip|degrade)")
	flags.Int("max-retries", def.MaxRetries, "extra attempts for a detail page that timed out or failed to load")
	flags.Duration("retry-delay", def.RetryDelay, "base backoff between detail attempts")
	flags.Duration("rate-limit-delay", def.RateLimitDelay, "minimum spacing between detail page loads")
	flags.String("output-dir", def.OutputDir, "directory for exported files")
	flags.String("format", def.Format, "export format (csv|xlsx|both)")
	flags.String("database-url", def.DatabaseURL, "PostgreSQL connection string; records are upserted when set")
	flags.String("metrics-file", def.MetricsFile, "write run metrics in Prometheus text format to this file")
	flags.Int("preview", def.PreviewRows, "number of records shown in the final report")
	flags.String("log-level", def.LogLevel, "debug|info|warn|error")
	flags.String("log-format", def.LogFormat, "console|json")

	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}
	return cmd
}

// run performs one scrape and export for cfg
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	logger, err := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	criteria := models.SearchCriteria{Year: cfg.Year, Category: cfg.Category}
	logger.Info("ISEF Abstracts Scraper")
	logger.Info("Year: %d | Category: %q | Policy: %s | Retries: %d", criteria.Year, criteria.Category, cfg.RecordPolicy, cfg.MaxRetries)

	m := metrics.New()
	if cfg.MetricsFile != "" {
		defer func() {
			if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
				logger.Warn("%v", err)
			}
		}()
	}

	// the database is checked before the browser starts so a bad DSN fails fast
	var sinks []storage.RecordSink
	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresWriter(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("cannot connect to PostgreSQL: %w", err)
		}
		defer pg.Close()
		if err := pg.CreateTable(ctx); err != nil {
			return err
		}
		sinks = append(sinks, pg)
	}

	session := isef.NewChromeSession(isef.SessionOptions{
		Headless:     cfg.Headless,
		UserAgent:    cfg.UserAgent,
		PollInterval: cfg.PollInterval,
	}, logger)

	result, err := isef.NewScraper(cfg, session, m, logger).Scrape(ctx, criteria)
	summary := services.Summarize(result)
	if err != nil {
		if isef.Classify(err) == isef.ClassZeroResults {
			logger.Warn("No project data extracted, nothing exported")
			services.PrintRunReport(out, summary, nil, 0)
			return nil
		}
		return err
	}

	exporter := services.NewExporter(services.ExportOptions{
		OutputDir: cfg.OutputDir,
		Format:    cfg.Format,
	}, m, logger, sinks...)
	written, err := exporter.Export(ctx, criteria, result.Records)
	summary.Outputs = written
	if errors.Is(err, services.ErrNothingToExport) {
		logger.Warn("No project data extracted, nothing exported")
		services.PrintRunReport(out, summary, nil, 0)
		return nil
	}

	services.PrintRunReport(out, summary, result.Records, cfg.PreviewRows)
	if err != nil {
		return err
	}
	logger.Info("Done! Exported %d projects", len(result.Records))
	return nil
}

// Run executes the command with args and returns the process exit code:
// 0 on success or when nothing was found, 1 when the run was aborted.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		if class := isef.Classify(err); class != isef.ClassUnknown {
			fmt.Fprintf(stderr, "Failure class: %s\n", class)
		}
		return 1
	}
	return 0
}

// ExecuteContext runs the command line of the current process
func ExecuteContext(ctx context.Context) int {
	return Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
