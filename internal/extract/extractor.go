package extract

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"signalscout/internal/textnorm"
)

// Candidate is a raw extraction result before validation and scoring. A
// candidate exists only when asset, direction and entry price were all found;
// everything else is optional.
type Candidate struct {
	Asset      string
	Direction  string
	EntryPrice decimal.Decimal
	Targets    []decimal.Decimal
	StopLoss   *decimal.Decimal
	Leverage   int
	Timeframe  string
}

// Target returns the primary (first) target, or nil when none was extracted.
func (c *Candidate) Target() *decimal.Decimal {
	if len(c.Targets) == 0 {
		return nil
	}
	t := c.Targets[0]
	return &t
}

type Extractor struct {
	DefaultLeverage int
}

func NewExtractor(defaultLeverage int) *Extractor {
	if defaultLeverage < 1 {
		defaultLeverage = 1
	}
	return &Extractor{DefaultLeverage: defaultLeverage}
}

// Extract runs the pattern table against normalized text. It returns the
// candidate and true when the message qualifies as a signal, or nil and false
// when any of the required fields (asset, direction, entry) is missing. A
// field whose matched number fails to parse is treated as not found for that
// pattern, falling through to the next priority.
func (e *Extractor) Extract(m textnorm.Normalized) (*Candidate, bool) {
	text := m.Matchable
	if text == "" {
		return nil, false
	}

	c := &Candidate{Leverage: e.DefaultLeverage, Timeframe: "UNKNOWN"}

	for _, field := range fieldOrder {
		switch field {
		case FieldAsset:
			if v, ok := firstString(text, field); ok {
				c.Asset = v
			}
		case FieldDirection:
			if v, ok := firstString(text, field); ok {
				c.Direction = v
			}
		case FieldEntry:
			if v, ok := firstDecimal(text, field); ok {
				c.EntryPrice = v
			} else {
				return nil, false
			}
		case FieldTarget:
			c.Targets = allDecimals(text, field)
		case FieldStop:
			if v, ok := firstDecimal(text, field); ok {
				c.StopLoss = &v
			}
		case FieldLeverage:
			if v, ok := firstString(text, field); ok {
				if n, err := strconv.Atoi(v); err == nil && n >= 1 {
					c.Leverage = n
				}
			}
		case FieldTimeframe:
			if v, ok := firstString(text, field); ok {
				if mapped, found := timeframeWords[v]; found {
					v = mapped
				}
				c.Timeframe = v
			}
		}
		if field == FieldAsset && c.Asset == "" {
			return nil, false
		}
		if field == FieldDirection && c.Direction == "" {
			return nil, false
		}
	}
	return c, true
}

func firstString(text, field string) (string, bool) {
	for _, p := range patternsFor(field) {
		if m := p.Re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func firstDecimal(text, field string) (decimal.Decimal, bool) {
	for _, p := range patternsFor(field) {
		m := p.Re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if d, ok := parsePrice(m[1]); ok {
			return d, true
		}
	}
	return decimal.Decimal{}, false
}

func allDecimals(text, field string) []decimal.Decimal {
	for _, p := range patternsFor(field) {
		ms := p.Re.FindAllStringSubmatch(text, -1)
		if len(ms) == 0 {
			continue
		}
		out := make([]decimal.Decimal, 0, len(ms))
		for _, m := range ms {
			if d, ok := parsePrice(m[1]); ok {
				out = append(out, d)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func parsePrice(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil || d.Sign() <= 0 {
		return decimal.Decimal{}, false
	}
	return d, true
}
