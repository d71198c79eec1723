// Command icefeed exercises an ingress-iceberg service from the outside:
// it synthesizes sample data, ships it as a base64-encoded Arrow IPC stream,
// and optionally verifies the result against the Iceberg REST catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/datapassage/icefeed/internal/smoke"
	"github.com/datapassage/icefeed/pkg/catalog"
	"github.com/datapassage/icefeed/pkg/config"
	"github.com/datapassage/icefeed/pkg/dataset"
	"github.com/datapassage/icefeed/pkg/errors"
	"github.com/datapassage/icefeed/pkg/ingest"
	"github.com/datapassage/icefeed/pkg/json"
	"github.com/datapassage/icefeed/pkg/logger"
	"github.com/datapassage/icefeed/pkg/observability"
	"github.com/datapassage/icefeed/pkg/payload"
)

var version = "0.1.0"

// rootFlags are shared by every subcommand that talks to the service.
type rootFlags struct {
	configFile string
	endpoint   string
	catalogURL string
	table      string
	namespace  string
	logLevel   string
	timeout    time.Duration
	compress   string
	tracing    bool
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "icefeed",
		Short: "Icefeed - smoke-test client for ingress-iceberg services",
		Long: `Icefeed synthesizes columnar sample data, serializes it as an Arrow IPC
stream, and sends it to an ingress-iceberg service for ingestion into
Iceberg tables. It is the client half of a smoke test: point it at a
running service and it tells you whether the ingest path works.`,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "Path to client configuration YAML file (optional)")
	pf.StringVarP(&flags.endpoint, "endpoint", "e", "", "Base URL of the ingress service (default http://localhost:3000)")
	pf.StringVarP(&flags.table, "table", "t", "", "Target table name (default test_table)")
	pf.StringVarP(&flags.namespace, "namespace", "n", "", "Target namespace (default default)")
	pf.StringVar(&flags.catalogURL, "catalog", "", "Base URL of the Iceberg REST catalog (default http://localhost:8181)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error; default info)")
	pf.DurationVar(&flags.timeout, "timeout", 30*time.Second, "Overall request timeout")
	pf.StringVar(&flags.compress, "compress", "", "IPC body compression (zstd, lz4; default none)")
	pf.BoolVar(&flags.tracing, "tracing", false, "Emit spans to stdout")

	root.AddCommand(versionCmd())
	root.AddCommand(healthCmd(flags))
	root.AddCommand(ingestCmd(flags))
	root.AddCommand(smokeCmd(flags))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if hint, ok := errors.DetailIn(err, ingest.HintDetailKey); ok {
			fmt.Fprintf(os.Stderr, "hint: %v\n", hint)
		}
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Icefeed v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func healthCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the ingress service is up",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, cleanup, err := buildClient(flags)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(context.Background(), flags.timeout)
			defer cancel()

			status, err := client.Health(ctx)
			if err != nil {
				return err
			}
			fmt.Println(string(status.Raw))
			if !status.Healthy() {
				return errors.Newf(errors.ErrorTypeHealth, "service reported status %q", status.Status)
			}
			return nil
		},
	}
}

func ingestCmd(flags *rootFlags) *cobra.Command {
	var fixture string
	var rows int
	var csvFile string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Send one batch of data to the service",
		Long: `Send one batch of data to the ingest endpoint. By default a built-in
sample dataset is synthesized; pass --csv to ingest the rows of a CSV file
instead (header row names the columns, types are inferred per column).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, cleanup, err := buildClient(flags)
			if err != nil {
				return err
			}
			defer cleanup()

			var ds *dataset.Dataset
			if csvFile != "" {
				ds, err = dataset.ReadCSVFile(csvFile)
			} else {
				ds, err = pickFixture(fixture, rows)
			}
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), flags.timeout)
			defer cancel()

			resp, err := client.IngestDataset(ctx, cfg.Endpoint.Table, cfg.Endpoint.Namespace, ds)
			if err != nil {
				return err
			}
			fmt.Println(string(resp.Raw))
			if !resp.Success {
				return errors.Newf(errors.ErrorTypeData, "service rejected the batch: %s", resp.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fixture, "fixture", "users", "Sample dataset to send (users, simple, mixed, nullable, large)")
	cmd.Flags().IntVar(&rows, "rows", 1000, "Row count for the large fixture")
	cmd.Flags().StringVar(&csvFile, "csv", "", "Path to a CSV file to ingest instead of a fixture")
	return cmd
}

func smokeCmd(flags *rootFlags) *cobra.Command {
	var verify bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run the full smoke sequence: health, ingest, optional catalog verify",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, cleanup, err := buildClient(flags)
			if err != nil {
				return err
			}
			defer cleanup()

			var opts []smoke.Option
			if verify {
				cat, err := catalog.NewClient(cfg.Endpoint.CatalogURL, logger.Get())
				if err != nil {
					return err
				}
				defer func() { _ = cat.Close() }()
				opts = append(opts, smoke.WithCatalog(cat))
			}

			runner := smoke.NewRunner(client, cfg.Endpoint.Table, cfg.Endpoint.Namespace, logger.Get(), opts...)

			ctx, cancel := context.WithTimeout(context.Background(), flags.timeout)
			defer cancel()

			report := runner.Run(ctx)
			if jsonOut {
				out, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			} else {
				printReport(report)
			}
			if !report.OK() {
				return report.FirstError()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Verify the table exists in the REST catalog after ingest")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")
	return cmd
}

func printReport(report *smoke.Report) {
	for _, step := range report.Steps {
		mark := "PASS"
		if !step.OK {
			mark = "FAIL"
		}
		fmt.Printf("%-6s %-8s %v", mark, step.Name, step.Duration.Round(time.Millisecond))
		if step.Detail != "" {
			fmt.Printf("  %s", step.Detail)
		}
		fmt.Println()
	}
	if report.Records > 0 {
		fmt.Printf("records ingested: %d\n", report.Records)
	}
}

// buildClient assembles the configured ingest client. The returned cleanup
// closes the client and flushes telemetry.
func buildClient(flags *rootFlags) (*ingest.Client, *config.ClientConfig, func(), error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Encoding:    cfg.Logging.Encoding,
		Development: cfg.Logging.Development,
	}); err != nil {
		return nil, nil, nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize logger")
	}
	log := logger.Get()

	if cfg.Observability.EnableTracing {
		if err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    "icefeed",
			ServiceVersion: version,
			SamplingRate:   cfg.Observability.TraceSamplingRate,
		}); err != nil {
			log.Warn("tracing disabled", zap.Error(err))
		}
	}

	var clientOpts []ingest.Option
	if flags.compress != "" {
		comp := payload.Compression(flags.compress)
		switch comp {
		case payload.CompressionZstd, payload.CompressionLZ4:
			clientOpts = append(clientOpts, ingest.WithEncoder(payload.NewEncoder(payload.WithCompression(comp))))
		default:
			return nil, nil, nil, errors.Newf(errors.ErrorTypeConfig, "unknown compression codec %q", flags.compress)
		}
	}

	client, err := ingest.NewClient(cfg, log, clientOpts...)
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() {
		_ = client.Close()
		_ = logger.Sync()
	}
	return client, cfg, cleanup, nil
}

// loadConfig layers file config under command-line overrides.
func loadConfig(flags *rootFlags) (*config.ClientConfig, error) {
	cfg := config.NewClientConfig()
	if flags.configFile != "" {
		loaded, err := config.LoadClientConfig(flags.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if flags.endpoint != "" {
		cfg.Endpoint.ServiceURL = flags.endpoint
	}
	if flags.catalogURL != "" {
		cfg.Endpoint.CatalogURL = flags.catalogURL
	}
	if flags.table != "" {
		cfg.Endpoint.Table = flags.table
	}
	if flags.namespace != "" {
		cfg.Endpoint.Namespace = flags.namespace
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.tracing {
		cfg.Observability.EnableTracing = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func pickFixture(name string, rows int) (*dataset.Dataset, error) {
	switch name {
	case "users":
		return dataset.SampleUsers(), nil
	case "simple":
		return dataset.SampleSimple(), nil
	case "mixed":
		return dataset.SampleMixed(), nil
	case "nullable":
		return dataset.SampleNullable(), nil
	case "large":
		return dataset.SampleLarge(rows), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown fixture %q", name)
	}
}
