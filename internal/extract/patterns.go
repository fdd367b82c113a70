package extract

import (
	"regexp"
)

// Field names for the pattern table. Groups are evaluated in the order listed
// in fieldOrder; within a field, patterns are tried by ascending priority and
// the first match wins. No scoring across patterns.
const (
	FieldAsset     = "asset"
	FieldDirection = "direction"
	FieldEntry     = "entry"
	FieldTarget    = "target"
	FieldStop      = "stop"
	FieldLeverage  = "leverage"
	FieldTimeframe = "timeframe"
)

var fieldOrder = []string{
	FieldAsset,
	FieldDirection,
	FieldEntry,
	FieldTarget,
	FieldStop,
	FieldLeverage,
	FieldTimeframe,
}

// num matches a price with optional thousands separators; separators are
// stripped before parsing.
const num = `([0-9][0-9,]*(?:\.[0-9]+)?)`

type fieldPattern struct {
	Field    string
	Priority int
	Re       *regexp.Regexp
}

// knownTickers backs the lowest-priority asset pattern: a bare ticker with no
// pair suffix, hash or dollar marker. Tickers that collide with common English
// words ("SUN", "CAT") are a known extraction limitation; no disambiguation is
// attempted.
const knownTickers = `BTC|ETH|SOL|BNB|XRP|ADA|DOGE|DOT|AVAX|LINK|MATIC|LTC|TRX|TON|ATOM|UNI|NEAR|APT|ARB|OP|INJ|SUI|PEPE|SHIB|FIL|ICP`

// patternTable is the single declarative, ordered table of extraction rules.
// Entry/target/stop accept both labelled forms ("Entry: 110,500") and inline
// forms ("BTC LONG 110500").
var patternTable = []fieldPattern{
	{Field: FieldAsset, Priority: 1, Re: regexp.MustCompile(`\b([A-Z0-9]{2,10})[/\-](?:USDT|USDC|USD|BUSD|FDUSD|PERP)\b`)},
	{Field: FieldAsset, Priority: 2, Re: regexp.MustCompile(`#([A-Z0-9]{2,10})\b`)},
	{Field: FieldAsset, Priority: 3, Re: regexp.MustCompile(`\$([A-Z]{2,10})\b`)},
	{Field: FieldAsset, Priority: 4, Re: regexp.MustCompile(`\b(` + knownTickers + `)\b`)},

	{Field: FieldDirection, Priority: 1, Re: regexp.MustCompile(`\b(LONG|SHORT)\b`)},
	{Field: FieldDirection, Priority: 2, Re: regexp.MustCompile(`\b(BUY|SELL)\b`)},

	{Field: FieldEntry, Priority: 1, Re: regexp.MustCompile(`\b(?:ENTRY|ENTER|ENTRY ZONE|BUY ZONE|EP)\s*(?:PRICE)?\s*[:=@]?\s*\$?` + num)},
	{Field: FieldEntry, Priority: 2, Re: regexp.MustCompile(`@\s*\$?` + num)},
	{Field: FieldEntry, Priority: 3, Re: regexp.MustCompile(`\b(?:LONG|SHORT|BUY|SELL)\s+\$?` + num)},

	// The optional TP index must be followed by a separator; otherwise
	// "TARGET 160" would lose its leading digit to the index.
	{Field: FieldTarget, Priority: 1, Re: regexp.MustCompile(`\b(?:TARGET|TP|TAKE PROFIT)\s*[1-9]?\s*[:=]\s*\$?` + num)},
	{Field: FieldTarget, Priority: 2, Re: regexp.MustCompile(`\bT[1-9]\s*[:=]?\s*\$?` + num)},
	{Field: FieldTarget, Priority: 3, Re: regexp.MustCompile(`\b(?:TARGET|TP|TAKE PROFIT)\s+\$?` + num)},

	{Field: FieldStop, Priority: 1, Re: regexp.MustCompile(`\b(?:STOP LOSS|STOPLOSS|STOP|SL)\s*[:=]?\s*\$?` + num)},

	{Field: FieldLeverage, Priority: 1, Re: regexp.MustCompile(`\b([0-9]{1,3})\s*X\b`)},
	{Field: FieldLeverage, Priority: 2, Re: regexp.MustCompile(`\bX\s*([0-9]{1,3})\b`)},

	{Field: FieldTimeframe, Priority: 1, Re: regexp.MustCompile(`\b([0-9]{1,2}[MHDW])\b`)},
	{Field: FieldTimeframe, Priority: 2, Re: regexp.MustCompile(`\b(HOURLY|DAILY|WEEKLY)\b`)},
}

// timeframeWords maps spelled-out timeframes onto the compact labels used by
// the resolution-horizon table.
var timeframeWords = map[string]string{
	"HOURLY": "1H",
	"DAILY":  "1D",
	"WEEKLY": "1W",
}

func patternsFor(field string) []fieldPattern {
	out := make([]fieldPattern, 0, 4)
	for _, p := range patternTable {
		if p.Field == field {
			out = append(out, p)
		}
	}
	return out
}
