package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/replay-lab/replay-trading/internal/datasource"
	"github.com/replay-lab/replay-trading/internal/engine"
	"github.com/replay-lab/replay-trading/internal/logger"
	"github.com/replay-lab/replay-trading/internal/types"
	"github.com/replay-lab/replay-trading/internal/version"
)

func loadConfig(path string) (engine.BacktestConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.BacktestConfig{}, fmt.Errorf("failed to read config: %w", err)
	}

	config := engine.EmptyConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return engine.BacktestConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

func loadStrategy(path string) (types.StrategyDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.StrategyDefinition{}, fmt.Errorf("failed to read strategy: %w", err)
	}

	var strategy types.StrategyDefinition
	if err := yaml.Unmarshal(data, &strategy); err != nil {
		return types.StrategyDefinition{}, fmt.Errorf("failed to parse strategy: %w", err)
	}

	return strategy, nil
}

// loadBars reads the full bar sequence for the configured symbol,
// showing load progress for large files.
func loadBars(dataPath string, config engine.BacktestConfig, log *logger.Logger) ([]types.Bar, error) {
	source, err := datasource.NewDataSource(":memory:", log)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	if err := source.Initialize(dataPath); err != nil {
		return nil, err
	}

	count, err := source.Count(config.Symbol, config.StartTime, config.EndTime)
	if err != nil {
		return nil, err
	}

	bar := progressbar.Default(int64(count))
	bar.Describe(fmt.Sprintf("Loading %s bars", config.Symbol))

	bars := make([]types.Bar, 0, count)

	for b, err := range source.ReadAll(config.Symbol, config.StartTime, config.EndTime) {
		if err != nil {
			return nil, err
		}

		bars = append(bars, b)
		_ = bar.Add(1)
	}

	return bars, nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	config, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	strategy, err := loadStrategy(cmd.String("strategy"))
	if err != nil {
		return err
	}

	backtest, err := engine.NewBacktest(log, config, strategy)
	if err != nil {
		return err
	}

	bars, err := loadBars(cmd.String("data"), config, log)
	if err != nil {
		return err
	}

	started := time.Now()
	run, runErr := backtest.Run(ctx, bars)

	output := cmd.String("output")
	if output != "" {
		if err := types.WriteBacktestRun(output, run); err != nil {
			return err
		}

		fmt.Printf("Run %s written to %s\n", run.ID, output)
	}

	fmt.Printf("Status: %s, trades: %d, realized PnL: %s, elapsed: %s\n",
		run.Status, run.Report.TotalTrades, run.Report.RealizedPnL, time.Since(started).Round(time.Millisecond))

	return runErr
}

func schemaAction(_ context.Context, _ *cli.Command) error {
	config := engine.EmptyConfig()

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Replay a trading strategy against historical bar data",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a backtest",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path to the bar data file (CSV or parquet)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "strategy",
						Aliases:  []string{"s"},
						Usage:    "Path to the strategy definition YAML",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the backtest config YAML",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path to write the run report YAML to",
						Value:   "",
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the backtest config",
				Action: schemaAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
