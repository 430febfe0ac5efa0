package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/replay-lab/replay-trading/internal/types"
)

// DataSource loads bar data for the engine. It lives outside the
// replay core: the engine itself only ever sees fully loaded bar
// slices, never a database handle.
type DataSource interface {
	// Initialize loads market data from the given file. CSV and parquet
	// files are supported, selected by extension.
	Initialize(path string) error
	// ReadAll reads all bars for a symbol within the optional time range,
	// ordered by timestamp, and yields them to the caller.
	ReadAll(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool)
	// LoadBars materializes the full bar slice for a symbol within the
	// optional time range.
	LoadBars(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error)
	// Count returns the number of bars for a symbol within the optional
	// time range.
	Count(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Symbols lists the distinct symbols present in the loaded data.
	Symbols() ([]string, error)
	// Close closes the data source and releases any resources.
	Close() error
}
