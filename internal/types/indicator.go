package types

// IndicatorType identifies a technical indicator kind.
type IndicatorType string

const (
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeSMA            IndicatorType = "sma"
	IndicatorTypeEMA            IndicatorType = "ema"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeATR            IndicatorType = "atr"
)

// AllIndicatorTypes lists every indicator the engine can compute.
var AllIndicatorTypes = []IndicatorType{
	IndicatorTypeRSI,
	IndicatorTypeSMA,
	IndicatorTypeEMA,
	IndicatorTypeMACD,
	IndicatorTypeBollingerBands,
	IndicatorTypeATR,
}
