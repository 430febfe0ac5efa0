package datasource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/replay-lab/replay-trading/internal/logger"
	"github.com/replay-lab/replay-trading/internal/types"
)

type DuckDBTestSuite struct {
	suite.Suite
	ds      DataSource
	csvPath string
}

func TestDuckDBSuite(t *testing.T) {
	suite.Run(t, new(DuckDBTestSuite))
}

func (suite *DuckDBTestSuite) SetupSuite() {
	dir := suite.T().TempDir()
	suite.csvPath = filepath.Join(dir, "bars.csv")

	csv := `time,symbol,open,high,low,close,volume
2024-01-01T00:00:00Z,BTCUSDT,100,101,99,100.5,1000
2024-01-01T01:00:00Z,BTCUSDT,100.5,102,100,101.5,1100
2024-01-01T02:00:00Z,BTCUSDT,101.5,103,101,102.5,1200
2024-01-01T00:00:00Z,ETHUSDT,50,51,49,50.5,5000
`

	suite.Require().NoError(os.WriteFile(suite.csvPath, []byte(csv), 0644))

	ds, err := NewDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.ds = ds

	suite.Require().NoError(suite.ds.Initialize(suite.csvPath))
}

func (suite *DuckDBTestSuite) TearDownSuite() {
	if suite.ds != nil {
		suite.ds.Close()
	}
}

func (suite *DuckDBTestSuite) TestCount() {
	count, err := suite.ds.Count("BTCUSDT", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(3, count)

	count, err = suite.ds.Count("ETHUSDT", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(1, count)
}

func (suite *DuckDBTestSuite) TestCountWithRange() {
	start := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)

	count, err := suite.ds.Count("BTCUSDT", optional.Some(start), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(2, count)
}

func (suite *DuckDBTestSuite) TestLoadBars() {
	bars, err := suite.ds.LoadBars("BTCUSDT", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(bars, 3)

	suite.NoError(types.ValidateSeries(bars))
	suite.True(bars[0].Open.Equal(decimal.NewFromInt(100)))
	suite.True(bars[2].Close.Equal(decimal.RequireFromString("102.5")))
	suite.True(bars[0].Timestamp.Before(bars[1].Timestamp))
}

func (suite *DuckDBTestSuite) TestReadAllEarlyStop() {
	read := 0

	for _, err := range suite.ds.ReadAll("BTCUSDT", optional.None[time.Time](), optional.None[time.Time]()) {
		suite.Require().NoError(err)

		read++
		if read == 2 {
			break
		}
	}

	suite.Equal(2, read)
}

func (suite *DuckDBTestSuite) TestSymbols() {
	symbols, err := suite.ds.Symbols()
	suite.Require().NoError(err)
	suite.Equal([]string{"BTCUSDT", "ETHUSDT"}, symbols)
}

func (suite *DuckDBTestSuite) TestUnsupportedExtension() {
	ds, err := NewDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	defer ds.Close()

	suite.Error(ds.Initialize("/tmp/bars.json"))
}
