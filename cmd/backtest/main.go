// Command backtest replays bar data through the strategy engine and writes
// the action log and run statistics to a results folder.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/strategy-tester/internal/datasource"
	"github.com/rxtech-lab/strategy-tester/internal/engine"
	"github.com/rxtech-lab/strategy-tester/internal/logger"
	"github.com/rxtech-lab/strategy-tester/internal/strategy"
	"github.com/rxtech-lab/strategy-tester/internal/types"
)

func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	outputDir := cmd.String("output")
	sourceKind := cmd.String("source")
	fast := int(cmd.Int("fast"))
	slow := int(cmd.Int("slow"))

	newLogger := logger.NewLogger
	if cmd.Bool("verbose") {
		newLogger = logger.NewDebugLogger
	}

	appLogger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	if fast >= slow {
		return fmt.Errorf("fast window (%d) must be shorter than slow window (%d)", fast, slow)
	}

	config := engine.DefaultConfig()

	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		config, err = engine.ParseConfig(string(raw))
		if err != nil {
			return err
		}
	}

	source, err := newDataSource(sourceKind, appLogger)
	if err != nil {
		return err
	}
	defer source.Close()

	if err := source.Initialize(dataPath); err != nil {
		return err
	}

	backtester, err := engine.NewEngine(config, appLogger)
	if err != nil {
		return err
	}

	if err := backtester.AddEntryStrategy(strategy.NewMovingAverageCrossStrategy(fast, slow)); err != nil {
		return err
	}

	count, err := source.Count(config.StartTime, config.EndTime)
	if err != nil {
		return err
	}

	progress := progressbar.Default(int64(count))
	progress.Describe(fmt.Sprintf("Replaying %s", filepath.Base(dataPath)))

	err = backtester.Run(
		source.ReadAll(config.StartTime, config.EndTime),
		optional.Some(func(int) { progress.Add(1) }), //nolint:errcheck
	)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create results folder: %w", err)
	}

	actionsPath := filepath.Join(outputDir, "actions.csv")
	if err := types.WriteActionLog(actionsPath, backtester.Actions()); err != nil {
		return err
	}

	stats := backtester.Stats()
	stats.ActionsFilePath = actionsPath
	stats.DataPath = dataPath
	stats.ConfigPath = configPath

	statsPath := filepath.Join(outputDir, "stats.yaml")
	if err := types.WriteRunStats(statsPath, stats); err != nil {
		return err
	}

	appLogger.Info("backtest finished",
		zap.Int("trades", stats.TradeResult.NumberOfTrades),
		zap.Float64("win_rate", stats.TradeResult.WinRate),
		zap.Float64("total_pnl", stats.TradePnl.TotalPnL),
		zap.Float64("ending_account_value", stats.EndingAccountValue),
		zap.String("results", outputDir))

	return nil
}

func schemaAction(ctx context.Context, cmd *cli.Command) error {
	config := engine.DefaultConfig()

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

// newDataSource picks the bar store backend. DuckDB queries the file in
// place; parquet loads everything into memory. Both are wrapped in the day
// cache.
func newDataSource(kind string, log *logger.Logger) (datasource.DataSource, error) {
	switch strings.ToLower(kind) {
	case "duckdb":
		source, err := datasource.NewDuckDBDataSource(log)
		if err != nil {
			return nil, err
		}

		return datasource.NewCachedDataSource(source), nil
	case "parquet":
		return datasource.NewCachedDataSource(datasource.NewParquetDataSource(log)), nil
	default:
		return nil, fmt.Errorf("unknown data source %q (want duckdb or parquet)", kind)
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Replay historical bar data through trading strategies",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a backtest over a data file or glob",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Bar data path: a parquet/csv file or a glob",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to the yaml run config; defaults apply when omitted",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Results folder for actions.csv and stats.yaml",
						Value:   "results",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Data backend: duckdb or parquet",
						Value: "duckdb",
					},
					&cli.IntFlag{
						Name:  "fast",
						Usage: "Fast moving-average window in bars",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "slow",
						Usage: "Slow moving-average window in bars",
						Value: 30,
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Enable debug logging",
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the run config",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
