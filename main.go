package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"setsplit-server-go/config"
	"setsplit-server-go/db"
	"setsplit-server-go/handlers"
	"setsplit-server-go/logging"
	"setsplit-server-go/metrics"
	"setsplit-server-go/processor"
	"setsplit-server-go/sheet"
)

var (
	configPath string
	logLevel   string
	outPath    string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "setsplit",
	Short: "Split each section's students into sets A-E and emit SQL inserts",
	Long: `setsplit reads a student spreadsheet (Reg_no, Roll_no, Name, Sec, DOB),
shuffles every section with a fixed seed, deals the students into five
near-equal sets and renders one INSERT statement per student.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the upload and download HTTP API",
	RunE:  runServe,
}

var convertCmd = &cobra.Command{
	Use:   "convert [file.xlsx]",
	Short: "Process a spreadsheet offline and write the SQL file",
	Long: `Runs the same pipeline as the upload endpoint. The SQL goes to --out
(stdout when omitted) and the distribution summary is printed to stderr as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "setsplit.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")
	convertCmd.Flags().StringVarP(&outPath, "out", "o", "", "write SQL to this file instead of stdout")

	rootCmd.AddCommand(serveCmd, convertCmd)
}

func newProcessor(m *metrics.Collector) *processor.Processor {
	return processor.New(processor.Options{
		Seed:         cfg.Partition.Seed,
		TableName:    cfg.SQL.TableName,
		EscapeQuotes: cfg.SQL.EscapeQuotes,
		Logger:       logger,
		Metrics:      m,
	})
}

func newStore(ctx context.Context) (db.Store, func(), error) {
	if cfg.Store.Backend == "memory" {
		logger.Warn("Using in-memory result store, results are lost on restart")
		return db.NewMemoryStore(), func() {}, nil
	}
	client, err := db.InitializeRedisClient(ctx, db.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("Error closing Redis client", zap.Error(err))
		}
	}
	return db.NewRedisStore(client, cfg.GetResultTTL(), logger), closeFn, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	m := metrics.NewCollector()
	apiHandler := handlers.NewAPIHandler(store, newProcessor(m), m, logger, cfg.Server.MaxUploadBytes)
	router := handlers.SetupRouter(apiHandler)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runConvert(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !sheet.IsSupported(path) {
		return sheet.ErrUnsupportedFormat
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	table, err := sheet.Decode(f, sheet.DefaultOptions(logger))
	if err != nil {
		return err
	}
	out, err := newProcessor(nil).Process(table)
	if err != nil {
		return err
	}

	if outPath == "" {
		if _, err := io.WriteString(cmd.OutOrStdout(), out.SQL); err != nil {
			return fmt.Errorf("failed to write SQL: %w", err)
		}
	} else if err := writeSQLFile(outPath, out.SQL); err != nil {
		return err
	}
	logger.Info("SQL file generated", zap.String("out", outPath), zap.Int("statements", len(out.Statements)))

	enc := json.NewEncoder(cmd.ErrOrStderr())
	enc.SetIndent("", "  ")
	return enc.Encode(out.Summary)
}

// writeSQLFile writes the SQL blob to path. A failed close is reported,
// since that is where a short write to disk surfaces.
func writeSQLFile(path, sql string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if _, err := io.WriteString(file, sql); err != nil {
		return fmt.Errorf("failed to write SQL: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
