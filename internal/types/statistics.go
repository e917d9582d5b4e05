package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type TradeResult struct {
	// Count of all closed positions.
	NumberOfTrades int `yaml:"number_of_trades"`
	// Count of closed positions with positive realized pnl.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades"`
	// Count of closed positions with negative realized pnl.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades"`
	// Win rate over closed positions. Zero when no position closed.
	WinRate float64 `yaml:"win_rate"`
}

type TradePnl struct {
	// Realized PnL summed over all closed positions.
	RealizedPnL float64 `yaml:"realized_pnl"`
	// Unrealized PnL of positions still open at the end of the run,
	// marked at each ticker's last seen close.
	UnrealizedPnL float64 `yaml:"unrealized_pnl"`
	// Total PnL. RealizedPnL plus UnrealizedPnL.
	TotalPnL float64 `yaml:"total_pnl"`
	// Maximum loss among closed positions.
	MaximumLoss float64 `yaml:"maximum_loss"`
	// Maximum profit among closed positions.
	MaximumProfit float64 `yaml:"maximum_profit"`
}

type RunStats struct {
	// ID is the unique identifier for this run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Result of all trades.
	TradeResult TradeResult `yaml:"trade_result"`
	// PnL of all trades.
	TradePnl TradePnl `yaml:"trade_pnl"`
	// Positions still open when the data ran out.
	OpenPositions int `yaml:"open_positions"`
	// Account value at the end of the run.
	EndingAccountValue float64 `yaml:"ending_account_value"`
	// ActionsFilePath is the path to the action log csv file.
	ActionsFilePath string `yaml:"actions_file_path" json:"actions_file_path"`
	// DataPath is the path to the market data used for this run.
	DataPath string `yaml:"data_path" json:"data_path"`
	// ConfigPath is the path to the config file used for this run.
	ConfigPath string `yaml:"config_path" json:"config_path"`
}

func WriteRunStats(path string, stats RunStats) error {
	// Marshal the struct to YAML
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats to YAML: %w", err)
	}

	// Write the YAML data to the file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run stats to file: %w", err)
	}

	return nil
}
