// Package symbols selects instruments to archive when the caller does not
// name them explicitly: the most liquid spot pairs for a quote asset by 24h
// quote volume.
package symbols

import (
	"sort"
	"strings"

	"spotArchiver/internal/domain"
)

// defaultStablecoins are base assets excluded from auto-selection: a
// stable-vs-stable pair has no price series worth archiving.
var defaultStablecoins = []string{
	"USDT", "BUSD", "USDC", "FDUSD", "TUSD", "DAI", "EUR", "TRY", "BRL",
	"BIDR", "RUB", "PLN", "ARS", "NGN", "ZAR", "HKD", "AUD",
}

// Picker ranks tradable pairs by liquidity.
type Picker struct {
	quote   string
	stables map[string]bool
}

// Config holds picker configuration.
type Config struct {
	QuoteAsset  string   // e.g. "USDT"
	Stablecoins []string // base assets to exclude; nil uses the built-in set
}

// NewPicker creates a Picker.
func NewPicker(cfg Config) *Picker {
	quote := strings.ToUpper(cfg.QuoteAsset)
	if quote == "" {
		quote = "USDT"
	}
	stables := cfg.Stablecoins
	if stables == nil {
		stables = defaultStablecoins
	}
	set := make(map[string]bool, len(stables))
	for _, s := range stables {
		set[strings.ToUpper(s)] = true
	}
	return &Picker{quote: quote, stables: set}
}

// TopBases returns the base assets of the k most liquid pairs for the
// configured quote asset, ranked by 24h quote volume descending. Symbols not
// quoted in the configured asset, stablecoin bases, and bases on the exclude
// list are dropped. Deterministic: the sort is stable, so ties keep source
// order.
func (p *Picker) TopBases(volumes []domain.SymbolVolume, k int, exclude []string) []string {
	if k <= 0 {
		return []string{}
	}
	excluded := make(map[string]bool, len(exclude))
	for _, b := range exclude {
		excluded[strings.ToUpper(b)] = true
	}

	type ranked struct {
		base string
		qv   float64
	}
	candidates := make([]ranked, 0, len(volumes))
	for _, v := range volumes {
		if !strings.HasSuffix(v.Symbol, p.quote) || v.Symbol == p.quote {
			continue
		}
		base := strings.TrimSuffix(v.Symbol, p.quote)
		if base == "" || p.stables[base] {
			continue
		}
		candidates = append(candidates, ranked{base: base, qv: v.QuoteVolume})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].qv > candidates[j].qv
	})

	out := make([]string, 0, k)
	for _, c := range candidates {
		if excluded[c.base] {
			continue
		}
		out = append(out, c.base)
		if len(out) >= k {
			break
		}
	}
	return out
}
