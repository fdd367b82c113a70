package textnorm

import (
	"regexp"
	"strings"
)

// Normalized carries both the original text (kept for provenance) and the
// canonicalized uppercase form the pattern extractor matches against.
type Normalized struct {
	Original  string
	Matchable string
}

// assetAliases maps spelled-out or variant symbols to the canonical ticker.
// Replacement happens on the matchable copy only.
var assetAliases = map[string]string{
	"BITCOIN":  "BTC",
	"XBT":      "BTC",
	"ETHEREUM": "ETH",
	"ETHER":    "ETH",
	"SOLANA":   "SOL",
	"RIPPLE":   "XRP",
	"DOGECOIN": "DOGE",
	"CARDANO":  "ADA",
	"LITECOIN": "LTC",
	"POLKADOT": "DOT",
	"CHAINLINK": "LINK",
	"AVALANCHE": "AVAX",
}

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reAliases    *regexp.Regexp
)

func init() {
	keys := make([]string, 0, len(assetAliases))
	for k := range assetAliases {
		keys = append(keys, k)
	}
	reAliases = regexp.MustCompile(`\b(` + strings.Join(keys, "|") + `)\b`)
}

// Normalize cleans raw message text for matching. Empty input normalizes to an
// empty string; extraction downstream short-circuits on it. Never errors.
func Normalize(raw string) Normalized {
	original := raw
	s := strings.ToUpper(raw)
	s = strings.NewReplacer(
		" ", " ", // nbsp
		"​", "", // zero-width space
		"–", "-",
		"—", "-",
		"：", ":",
	).Replace(s)
	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = reAliases.ReplaceAllStringFunc(s, func(m string) string {
		if canonical, ok := assetAliases[m]; ok {
			return canonical
		}
		return m
	})
	return Normalized{Original: original, Matchable: s}
}
