package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"constructcore/internal/blob"
	"constructcore/internal/config"
	"constructcore/internal/core"
	"constructcore/internal/events"
	"constructcore/pkg/domain"
)

const appName = "constructcore"

var version = "dev"

type appOptions struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	opts := &appOptions{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Construction project management core",
		Long:          "Constructcore tracks projects, workers, daily attendance, budgets, risks, inspections, and site journals for small construction teams.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(summaryCmd(opts))
	cmd.AddCommand(attendanceCmd(opts))
	cmd.AddCommand(checkCmd(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, version)
		},
	})
	return cmd
}

func loadConfig(opts *appOptions) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := config.LoadFromFile(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg.Merge(loaded)
	}
	cfg.ApplyEnv()
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openService wires store, blob backend, and event publishing from config.
// The returned closer releases whatever was opened.
func openService(ctx context.Context, cfg *config.Config) (*core.Service, func(), error) {
	logger := cfg.Logger()

	engine := core.NewDefaultRulesEngine()
	var store core.PersistentStore
	var err error
	switch core.StorageDriver(cfg.Storage.Driver) {
	case core.StorageMemory:
		store = core.NewMemoryStore(engine)
	case core.StorageSQLite:
		store, err = core.NewSQLiteStore(cfg.Storage.SQLitePath, engine)
	case core.StoragePostgres:
		store, err = core.NewPostgresStore(cfg.Storage.PostgresDSN, engine)
	default:
		err = fmt.Errorf("unknown storage driver %s", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	closeStore := func() {
		if c, ok := store.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}

	var blobs blob.Store
	switch blob.Driver(cfg.Blob.Driver) {
	case blob.DriverMemory:
		blobs = blob.NewMemory()
	case blob.DriverFilesystem:
		blobs, err = blob.NewFilesystem(cfg.Blob.FSRoot)
	case blob.DriverS3:
		blobs, err = blob.NewS3(ctx, blob.S3Config{
			Bucket:   cfg.Blob.S3Bucket,
			Region:   cfg.Blob.S3Region,
			Endpoint: cfg.Blob.S3Endpoint,
		})
	default:
		err = fmt.Errorf("unknown blob driver %s", cfg.Blob.Driver)
	}
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("open blob store: %w", err)
	}

	publisher, err := events.Connect(cfg.NATS.URL, events.WithLogger(logger))
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	svc := core.NewService(store,
		core.WithLogger(logger),
		core.WithBlobStore(blobs),
		core.WithMetricsRecorder(core.NewExpvarMetricsRecorder("")),
		core.WithChangeSink(publisher.PublishChanges),
	)
	closer := func() {
		publisher.Close()
		closeStore()
	}
	return svc, closer, nil
}

func summaryCmd(opts *appOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard summary as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			svc, closer, err := openService(ctx, cfg)
			if err != nil {
				return err
			}
			defer closer()

			summary, err := svc.Dashboard(ctx, date)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "reporting date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func attendanceCmd(opts *appOptions) *cobra.Command {
	var (
		date string
		sets []string
	)
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Show or edit the attendance sheet for a date",
		Long:  "Without --set, prints the seeded sheet for the date. With --set worker=status pairs, reconciles the edits against committed records and persists only actual changes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			svc, closer, err := openService(ctx, cfg)
			if err != nil {
				return err
			}
			defer closer()

			if len(sets) == 0 {
				sheet, err := svc.AttendanceSheet(ctx, date)
				if err != nil {
					return err
				}
				return printStatusMap(cmd, sheet)
			}

			edits := make(map[string]domain.AttendanceStatus, len(sets))
			for _, pair := range sets {
				workerID, status, ok := strings.Cut(pair, "=")
				if !ok || workerID == "" {
					return fmt.Errorf("invalid --set %q: want worker=status", pair)
				}
				edits[workerID] = domain.AttendanceStatus(status)
			}
			diff, _, err := svc.SaveAttendanceSheet(ctx, nil, date, edits)
			if err != nil {
				return err
			}
			if len(diff) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no changes")
				return nil
			}
			return printStatusMap(cmd, diff)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "attendance date (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "worker=status edit, repeatable")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func printStatusMap(cmd *cobra.Command, m map[string]domain.AttendanceStatus) error {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, m[id])
	}
	return nil
}

func checkCmd(opts *appOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate policy rules against committed state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			svc, closer, err := openService(ctx, cfg)
			if err != nil {
				return err
			}
			defer closer()

			res, err := svc.CheckRules(ctx)
			if err != nil {
				return err
			}
			if len(res.Violations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			}
			for _, v := range res.Violations {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", v.Severity, v.Rule, v.Message)
			}
			if res.HasBlocking() {
				return fmt.Errorf("blocking violations found")
			}
			return nil
		},
	}
	return cmd
}
