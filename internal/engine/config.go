package engine

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MarketHours controls which sessions of the trading day are fed to the
// engine. The regular session is always included.
type MarketHours struct {
	IncludePremarket  bool `yaml:"include_premarket" json:"include_premarket" jsonschema:"title=Include Premarket,description=Feed 4:00-9:30 ET bars to the engine"`
	IncludePostmarket bool `yaml:"include_postmarket" json:"include_postmarket" jsonschema:"title=Include Postmarket,description=Feed 16:00-20:00 ET bars to the engine"`
}

// Includes reports whether a bar stamped at t belongs to an enabled session.
// Session boundaries follow the US equity day in loc (4:00 premarket, 9:30
// open, 16:00 close, 20:00 postmarket end).
func (m MarketHours) Includes(t time.Time, loc *time.Location) bool {
	local := t.In(loc)
	minutes := local.Hour()*60 + local.Minute()

	switch {
	case minutes >= 570 && minutes < 960:
		return true
	case minutes >= 240 && minutes < 570:
		return m.IncludePremarket
	case minutes >= 960 && minutes < 1200:
		return m.IncludePostmarket
	default:
		return false
	}
}

// Config configures a backtest run.
type Config struct {
	StartingAccountValue float64                         `yaml:"starting_account_value" json:"starting_account_value" validate:"gt=0" jsonschema:"title=Starting Account Value,description=Account value at the start of the run in USD,minimum=0"`
	SlippageFraction     float64                         `yaml:"slippage_fraction" json:"slippage_fraction" validate:"gte=0,lt=1" jsonschema:"title=Slippage Fraction,description=Fraction charged against both the entry and exit notional of every fill,minimum=0,maximum=1"`
	MaxPositionDuration  optional.Option[time.Duration]  `yaml:"max_position_duration" json:"max_position_duration" jsonschema:"title=Max Position Duration,description=Optional engine-wide holding limit such as 24h or 45m"`
	MarketHours          MarketHours                     `yaml:"market_hours" json:"market_hours" jsonschema:"title=Market Hours,description=Which sessions of the trading day are processed"`
	StartTime            optional.Option[time.Time]      `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start of the backtest period"`
	EndTime              optional.Option[time.Time]      `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end of the backtest period"`
}

// UnmarshalYAML implements custom unmarshaling for Config
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig struct {
		StartingAccountValue float64     `yaml:"starting_account_value"`
		SlippageFraction     float64     `yaml:"slippage_fraction"`
		MaxPositionDuration  *string     `yaml:"max_position_duration"`
		MarketHours          MarketHours `yaml:"market_hours"`
		StartTime            *time.Time  `yaml:"start_time"`
		EndTime              *time.Time  `yaml:"end_time"`
	}

	var raw rawConfig
	if err := unmarshal(&raw); err != nil {
		return err
	}

	c.StartingAccountValue = raw.StartingAccountValue
	c.SlippageFraction = raw.SlippageFraction
	c.MarketHours = raw.MarketHours
	c.MaxPositionDuration = optional.None[time.Duration]()
	c.StartTime = optional.None[time.Time]()
	c.EndTime = optional.None[time.Time]()

	if raw.MaxPositionDuration != nil {
		duration, err := time.ParseDuration(*raw.MaxPositionDuration)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeEngineConfigError, err, "invalid max_position_duration %q", *raw.MaxPositionDuration)
		}

		if duration <= 0 {
			return errors.Newf(errors.ErrCodeEngineConfigError, "max_position_duration must be positive, got %s", duration)
		}

		c.MaxPositionDuration = optional.Some(duration)
	}

	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	return nil
}

// Validate checks the config values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeEngineConfigError, "invalid config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeEngineConfigError, "end_time is before start_time")
	}

	return nil
}

// ParseConfig parses and validates a yaml config document.
func ParseConfig(data string) (Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal([]byte(data), &config); err != nil {
		return config, errors.Wrap(errors.ErrCodeEngineConfigError, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		StartingAccountValue: 10000,
		SlippageFraction:     0,
		MaxPositionDuration:  optional.None[time.Duration](),
		MarketHours:          MarketHours{IncludePremarket: false, IncludePostmarket: false},
		StartTime:            optional.None[time.Time](),
		EndTime:              optional.None[time.Time](),
	}
}

// GenerateSchema generates a JSON schema for the Config
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}
			if t.String() == "optional.Option[time.Duration]" {
				return &jsonschema.Schema{
					Type:    "string",
					Pattern: `^[0-9]+(ns|us|ms|s|m|h)$`,
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "strategy-tester-config"
	schema.Description = "Configuration schema for a backtest run"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the Config
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
