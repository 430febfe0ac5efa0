package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/replay-lab/replay-trading/internal/engine/costmodel"
	"github.com/replay-lab/replay-trading/internal/types"
	"github.com/replay-lab/replay-trading/pkg/errors"
)

// FillTiming selects the price a signal's order fills at.
type FillTiming string

const (
	// FillTimingCurrentClose fills at the close of the bar that produced
	// the signal.
	FillTimingCurrentClose FillTiming = "current_close"
	// FillTimingNextOpen fills at the open of the following bar.
	FillTimingNextOpen FillTiming = "next_open"
)

// AllFillTimings lists every supported fill timing.
var AllFillTimings = []any{
	FillTimingCurrentClose,
	FillTimingNextOpen,
}

// BacktestConfig is the full configuration of one backtest run.
type BacktestConfig struct {
	InitialCapital decimal.Decimal    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting account capital in quote currency"`
	Symbol         string             `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Trading pair the run replays"`
	Timeframe      types.Timeframe    `yaml:"timeframe" json:"timeframe" jsonschema:"title=Timeframe,description=Fixed interval covered by one bar"`
	FillTiming     FillTiming         `yaml:"fill_timing" json:"fill_timing" jsonschema:"title=Fill Timing,description=Price a signal's order fills at"`
	CostProfile    costmodel.Profile  `yaml:"cost_profile" json:"cost_profile" jsonschema:"title=Cost Profile,description=Cost model applied to simulated fills"`

	// SpreadFraction is the assumed bid-ask spread as a fraction of price.
	SpreadFraction decimal.Decimal `yaml:"spread_fraction" json:"spread_fraction" jsonschema:"title=Spread Fraction,description=Assumed bid-ask spread as a fraction of price,minimum=0"`
	// DecimalPrecision is the number of fractional digits order volumes
	// are truncated to.
	DecimalPrecision int32 `yaml:"decimal_precision" json:"decimal_precision" jsonschema:"title=Decimal Precision,description=Fractional digits for order volumes,minimum=0"`
	// MaxBarAnomalies is the number of non-fatal bar anomalies tolerated
	// before the run fails.
	MaxBarAnomalies int `yaml:"max_bar_anomalies" json:"max_bar_anomalies" jsonschema:"title=Max Bar Anomalies,description=Non-fatal data anomalies tolerated before the run fails,minimum=0"`

	StartTime optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start of the replayed period"`
	EndTime   optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end of the replayed period"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestConfig,
// applying defaults for absent fields.
func (c *BacktestConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		InitialCapital   decimal.Decimal   `yaml:"initial_capital"`
		Symbol           string            `yaml:"symbol"`
		Timeframe        types.Timeframe   `yaml:"timeframe"`
		FillTiming       FillTiming        `yaml:"fill_timing"`
		CostProfile      costmodel.Profile `yaml:"cost_profile"`
		SpreadFraction   decimal.Decimal   `yaml:"spread_fraction"`
		DecimalPrecision *int32            `yaml:"decimal_precision"`
		MaxBarAnomalies  *int              `yaml:"max_bar_anomalies"`
		StartTime        *time.Time        `yaml:"start_time"`
		EndTime          *time.Time        `yaml:"end_time"`
	}

	var config Config
	if err := unmarshal(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.Symbol = config.Symbol
	c.Timeframe = config.Timeframe
	c.FillTiming = config.FillTiming
	c.CostProfile = config.CostProfile
	c.SpreadFraction = config.SpreadFraction

	if c.FillTiming == "" {
		c.FillTiming = FillTimingCurrentClose
	}

	if c.CostProfile == "" {
		c.CostProfile = costmodel.ProfileTiered
	}

	c.DecimalPrecision = 8
	if config.DecimalPrecision != nil {
		c.DecimalPrecision = *config.DecimalPrecision
	}

	c.MaxBarAnomalies = 10
	if config.MaxBarAnomalies != nil {
		c.MaxBarAnomalies = *config.MaxBarAnomalies
	}

	c.StartTime = optional.None[time.Time]()
	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	c.EndTime = optional.None[time.Time]()
	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// Validate rejects configurations that cannot produce a meaningful run.
func (c *BacktestConfig) Validate() error {
	if !c.InitialCapital.IsPositive() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "initial capital must be positive, got %s", c.InitialCapital)
	}

	if c.Symbol == "" {
		return errors.New(errors.ErrCodeInvalidConfiguration, "symbol is required")
	}

	if _, err := c.Timeframe.Duration(); err != nil {
		return err
	}

	switch c.FillTiming {
	case FillTimingCurrentClose, FillTimingNextOpen:
	default:
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown fill timing: %q", c.FillTiming)
	}

	if c.SpreadFraction.IsNegative() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "spread fraction must not be negative, got %s", c.SpreadFraction)
	}

	if c.DecimalPrecision < 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "decimal precision must not be negative, got %d", c.DecimalPrecision)
	}

	if c.MaxBarAnomalies < 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "max bar anomalies must not be negative, got %d", c.MaxBarAnomalies)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && !c.StartTime.Unwrap().Before(c.EndTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "start time must be before end time")
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestConfig.
func (c *BacktestConfig) GenerateSchema() (*jsonschema.Schema, error) {
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
			if t == reflect.TypeOf(decimal.Decimal{}) {
				return &jsonschema.Schema{
					Type: "string",
				}
			}
			if strings.Contains(t.String(), "costmodel.Profile") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: costmodel.AllProfiles,
				}
			}
			if strings.Contains(t.String(), "engine.FillTiming") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: AllFillTimings,
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-config"
	schema.Description = "Configuration schema for a backtest run"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestConfig.
func (c *BacktestConfig) GenerateSchemaJSON() (string, error) {
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

// TestConfig returns a config suitable for tests.
func TestConfig(symbol string) BacktestConfig {
	return BacktestConfig{
		InitialCapital:   decimal.NewFromInt(10000),
		Symbol:           symbol,
		Timeframe:        types.Timeframe1h,
		FillTiming:       FillTimingCurrentClose,
		CostProfile:      costmodel.ProfileZero,
		SpreadFraction:   decimal.Zero,
		DecimalPrecision: 8,
		MaxBarAnomalies:  10,
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
	}
}

// EmptyConfig returns a BacktestConfig with default values.
func EmptyConfig() BacktestConfig {
	return BacktestConfig{
		InitialCapital:   decimal.Zero,
		Symbol:           "",
		Timeframe:        types.Timeframe1h,
		FillTiming:       FillTimingCurrentClose,
		CostProfile:      costmodel.ProfileTiered,
		SpreadFraction:   decimal.Zero,
		DecimalPrecision: 8,
		MaxBarAnomalies:  10,
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
	}
}
