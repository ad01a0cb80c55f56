// Command docstamp runs one batch generation from the command line and
// prints the per-record report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/oakrise/docstamp/internal/batch"
	"github.com/oakrise/docstamp/internal/compositor"
	"github.com/oakrise/docstamp/internal/config"
	"github.com/oakrise/docstamp/internal/configstore"
	"github.com/oakrise/docstamp/internal/datasource"
	"github.com/oakrise/docstamp/internal/delivery"
	"github.com/oakrise/docstamp/internal/docstore"
	"github.com/oakrise/docstamp/internal/formatter"
	"github.com/oakrise/docstamp/internal/generation"
	"github.com/oakrise/docstamp/pkg/database"
	"github.com/oakrise/docstamp/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	name := flag.String("name", "", "mapping configuration name")
	sourceID := flag.String("source", "", "data source id (workbook file name)")
	sheet := flag.String("sheet", "", "sheet name")
	rows := flag.String("rows", "", "comma-separated 1-based data row indices (default: all)")
	numberField := flag.String("number-field", "", "record field supplying the document number")
	flag.Parse()

	if *name == "" || *sourceID == "" || *sheet == "" {
		fmt.Fprintln(os.Stderr, "usage: docstamp -name <config> -source <workbook> -sheet <sheet> [-rows 1,2,3] [-number-field Field]")
		os.Exit(2)
	}

	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := database.NewMigrator(db, logger).RunMigrations(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	store, err := docstore.NewLocalStore(cfg.Storage.TemplatesDir, cfg.Storage.OutputDir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize document store", zap.Error(err))
	}

	var deliverer batch.Deliverer
	if cfg.Delivery.Enabled {
		deliverer = delivery.NewLarkDeliverer(delivery.LarkConfig{
			AppID:     cfg.Delivery.LarkAppID,
			AppSecret: cfg.Delivery.LarkAppSecret,
		}, logger)
	}

	orchestrator := batch.NewOrchestrator(
		compositor.New(formatter.New(cfg.Location(), cfg.Formatter.DateFormat), logger),
		store,
		deliverer,
		logger,
	)
	service := generation.NewService(
		configstore.NewSQLiteStore(db, logger),
		store,
		datasource.NewExcelSource(cfg.Storage.SourcesDir, logger),
		orchestrator,
		generation.DeliveryDefaults{
			Subject: cfg.Delivery.DefaultSubject,
			Body:    cfg.Delivery.DefaultBody,
		},
		logger,
	)

	rowSelector, err := parseRows(*rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -rows value: %v\n", err)
		os.Exit(2)
	}

	report, err := service.Generate(context.Background(), generation.RunRequest{
		ConfigName:          *name,
		SourceID:            *sourceID,
		Sheet:               *sheet,
		Rows:                rowSelector,
		DocumentNumberField: *numberField,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Batch did not start: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Run %s: %d processed, %d succeeded, %d failed\n",
		report.RunID, report.TotalProcessed, report.Succeeded(), report.Failed())
	for _, res := range report.Results {
		if res.Success {
			status := "OK"
			if res.DeliveryError != "" {
				status = "OK (delivery failed: " + res.DeliveryError + ")"
			} else if res.DeliveryAttempted {
				status = "OK (delivered)"
			}
			fmt.Printf("  %-12s %-24s %s\n", res.RowID, res.DocumentNumber, status)
		} else {
			fmt.Printf("  %-12s %-24s FAILED: %s\n", res.RowID, res.DocumentNumber, res.FailureReason)
		}
	}

	if report.Failed() > 0 {
		os.Exit(1)
	}
}

// parseRows parses a comma-separated list of 1-based row indices.
func parseRows(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	rows := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, fmt.Errorf("row index must be positive: %d", n)
		}
		rows = append(rows, n)
	}
	return rows, nil
}
