package types

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ActionType distinguishes entry fills from exit fills in the action log.
type ActionType string

const (
	ActionTypeEntry ActionType = "entry"
	ActionTypeExit  ActionType = "exit"
)

// Action is one fill recorded by the engine. Entry and exit records share a
// shape so the log stays a single ordered sequence; PnL and Reason are only
// populated on exits.
type Action struct {
	ID         string     `yaml:"id" json:"id" csv:"id" validate:"required,uuid"`
	Type       ActionType `yaml:"type" json:"type" csv:"type" validate:"required,oneof=entry exit"`
	PositionID int64      `yaml:"position_id" json:"position_id" csv:"position_id"`
	Ticker     string     `yaml:"ticker" json:"ticker" csv:"ticker" validate:"required"`
	Side       Side       `yaml:"side" json:"side" csv:"side" validate:"required,oneof=LONG SHORT"`
	Price      float64    `yaml:"price" json:"price" csv:"price" validate:"gt=0"`
	Quantity   float64    `yaml:"quantity" json:"quantity" csv:"quantity" validate:"gt=0"`
	PnL        float64    `yaml:"pnl" json:"pnl" csv:"pnl"`
	Reason     ExitReason `yaml:"reason" json:"reason" csv:"reason"`
	// Detail carries the name of the condition that triggered a condition exit.
	Detail       string    `yaml:"detail" json:"detail" csv:"detail"`
	StrategyName string    `yaml:"strategy_name" json:"strategy_name" csv:"strategy_name"`
	Timestamp    time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp" validate:"required"`
}

// WriteActionLog writes the actions to a csv file at path, in order.
func WriteActionLog(path string, actions []Action) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create action log file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"id", "type", "position_id", "ticker", "side", "price",
		"quantity", "pnl", "reason", "detail", "strategy_name", "timestamp",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write action log header: %w", err)
	}

	for _, action := range actions {
		record := []string{
			action.ID,
			string(action.Type),
			strconv.FormatInt(action.PositionID, 10),
			action.Ticker,
			string(action.Side),
			strconv.FormatFloat(action.Price, 'f', -1, 64),
			strconv.FormatFloat(action.Quantity, 'f', -1, 64),
			strconv.FormatFloat(action.PnL, 'f', -1, 64),
			string(action.Reason),
			action.Detail,
			action.StrategyName,
			action.Timestamp.UTC().Format(time.RFC3339Nano),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write action log record: %w", err)
		}
	}

	return nil
}
