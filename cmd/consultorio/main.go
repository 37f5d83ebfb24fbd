package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/consultorio/internal/auth"
	"github.com/iwvelando/consultorio/internal/config"
	"github.com/iwvelando/consultorio/internal/costs"
	"github.com/iwvelando/consultorio/internal/importer"
	"github.com/iwvelando/consultorio/internal/records"
	"github.com/iwvelando/consultorio/internal/server"
	"github.com/iwvelando/consultorio/internal/users"
	"github.com/iwvelando/consultorio/pkg/constants"
	"github.com/iwvelando/consultorio/pkg/jsonfile"
	"github.com/iwvelando/consultorio/pkg/output"
	"github.com/iwvelando/consultorio/pkg/validation"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	serverConfigLocation := flag.String("server-config", constants.DefaultServerConfigFile, "path to HTTP server configuration file")
	envFile := flag.String("env-file", ".env", "optional file of environment variables")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	reportUser := flag.String("report", "", "print the cost and revenue report for this user and exit")
	importFile := flag.String("import", "", "CSV file of visits to import into -user and exit")
	user := flag.String("user", "", "user whose records receive the import")
	maxUpload := flag.String("max-upload", "", "upload size limit override, e.g. 5M")
	var mapping importer.Mapping
	flag.StringVar(&mapping.Patient, "col-patient", "", "CSV column holding the patient name")
	flag.StringVar(&mapping.Treatment, "col-treatment", "", "CSV column holding the treatment")
	flag.StringVar(&mapping.Amount, "col-amount", "", "CSV column holding the amount")
	flag.StringVar(&mapping.Date, "col-date", "", "CSV column holding the visit date (optional)")
	flag.StringVar(&mapping.PaymentMethod, "col-payment", "", "CSV column holding the payment method (optional)")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load environment file %s\", \"error\": \"%v\"}\n", *envFile, err)
		os.Exit(1)
	}

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	recordsRegistry := records.NewRegistry(logger, conf.Storage.DataDir, conf.Storage.DocumentName, conf.Settings())
	recordsRegistry.Reserve(conf.UsersPath())
	calc := costs.NewCalculator(logger, conf.CostParameters())

	switch {
	case *reportUser != "":
		if err := runReport(os.Stdout, recordsRegistry, calc, *reportUser, outputFormat, time.Now()); err != nil {
			logger.Fatal("failed to build report",
				zap.String("op", "main"),
				zap.String("user", *reportUser),
				zap.Error(err),
			)
		}
	case *importFile != "":
		result, err := runImport(recordsRegistry, importer.New(logger, nil), *importFile, *user, mapping)
		if err != nil {
			logger.Fatal("failed to import visits",
				zap.String("op", "main"),
				zap.String("file", *importFile),
				zap.Error(err),
			)
		}
		for _, rowErr := range result.RowErrors {
			logger.Warn("row skipped",
				zap.String("op", "main"),
				zap.Int("row", rowErr.Row),
				zap.String("reason", rowErr.Message),
			)
		}
		fmt.Printf("Imported %d visits (%d errors), total %.0f, from %s to %s\n",
			result.Imported, result.Errors, result.TotalAmount, result.DateRange.First, result.DateRange.Last)
	default:
		serverConf, err := server.LoadConfig(*serverConfigLocation)
		if err != nil {
			logger.Fatal("failed to load server configuration",
				zap.String("op", "main"),
				zap.String("path", *serverConfigLocation),
				zap.Error(err),
			)
		}
		if *maxUpload != "" {
			size, err := server.ParseSize(*maxUpload)
			if err != nil {
				logger.Fatal("invalid upload size override",
					zap.String("op", "main"),
					zap.String("value", *maxUpload),
					zap.Error(err),
				)
			}
			serverConf.SetUploadSizeBytes(size)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := serve(ctx, logger, conf, serverConf, recordsRegistry, calc); err != nil {
			logger.Fatal("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}

// runReport prints the report for user. Users without a stored document are
// reported as an error rather than shown an empty practice.
func runReport(w io.Writer, registry *records.Registry, calc *costs.Calculator, user, format string, now time.Time) error {
	path, err := registry.DocumentPath(user)
	if err != nil {
		return err
	}
	if !jsonfile.Exists(path) {
		return fmt.Errorf("no records for user %s at %s", user, path)
	}
	store, err := registry.Get(user)
	if err != nil {
		return err
	}

	report := output.NewReport(user, store.Snapshot(), calc, now)
	switch format {
	case constants.OutputFormatCSV:
		output.CsvFormat(w, report)
	default:
		output.PrettyFormat(w, report)
	}
	return nil
}

// runImport loads a CSV file into user's records.
func runImport(registry *records.Registry, imp *importer.Importer, path, user string, mapping importer.Mapping) (importer.Result, error) {
	if user == "" {
		return importer.Result{}, fmt.Errorf("%w: -user is required with -import", validation.ErrInvalidInput)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return importer.Result{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	store, err := registry.Get(user)
	if err != nil {
		return importer.Result{}, err
	}
	return imp.Import(store, data, mapping)
}

// serve runs the HTTP API until ctx is cancelled, then drains open requests.
func serve(ctx context.Context, logger *zap.Logger, conf *config.Configuration, serverConf *server.Config, recordsRegistry *records.Registry, calc *costs.Calculator) error {
	tokens, err := auth.NewJWTManager(conf.Auth.JWTSecret, conf.Auth.TokenDuration)
	if err != nil {
		return fmt.Errorf("cannot issue sessions: %w", err)
	}

	userRegistry := users.New(logger, conf.UsersPath(), conf.Auth.MinPasswordLength)
	if conf.Auth.AdminUser != "" && conf.Auth.AdminPassword != "" {
		created, err := userRegistry.SeedAdmin(conf.Auth.AdminUser, conf.Auth.AdminPassword)
		if err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}
		if created {
			if _, err := recordsRegistry.Create(conf.Auth.AdminUser); err != nil {
				if removeErr := userRegistry.Remove(conf.Auth.AdminUser); removeErr != nil {
					logger.Error("failed to roll back admin seed",
						zap.String("op", "main.serve"),
						zap.Error(removeErr),
					)
				}
				return fmt.Errorf("failed to create admin records: %w", err)
			}
			logger.Info("seeded admin user",
				zap.String("op", "main.serve"),
				zap.String("user", conf.Auth.AdminUser),
			)
		}
	}

	handler := server.NewHandler(server.Options{
		Logger:         logger,
		Users:          userRegistry,
		Records:        recordsRegistry,
		Tokens:         tokens,
		Calculator:     calc,
		Importer:       importer.New(logger, nil),
		MaxUploadSize:  serverConf.UploadSizeBytes(),
		RequestTimeout: serverConf.RequestTimeoutDuration(),
		MetricsPath:    serverConf.MetricsPath,
		Version:        version,
	})

	srv := &http.Server{
		Addr:         serverConf.Address,
		Handler:      handler,
		ReadTimeout:  40 * time.Second,
		WriteTimeout: serverConf.RequestTimeoutDuration() + 10*time.Second,
		IdleTimeout:  time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started",
			zap.String("op", "main.serve"),
			zap.String("address", serverConf.Address),
			zap.String("version", version),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down",
		zap.String("op", "main.serve"),
	)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
