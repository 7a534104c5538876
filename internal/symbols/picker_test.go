package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"spotArchiver/internal/domain"
)

func TestPicker_TopBases(t *testing.T) {
	picker := NewPicker(Config{QuoteAsset: "USDT"})

	volumes := []domain.SymbolVolume{
		{Symbol: "SOLUSDT", QuoteVolume: 900},
		{Symbol: "BTCUSDT", QuoteVolume: 5000},
		{Symbol: "ETHBTC", QuoteVolume: 4000},   // wrong quote asset
		{Symbol: "USDCUSDT", QuoteVolume: 8000}, // stablecoin base
		{Symbol: "ETHUSDT", QuoteVolume: 3000},
		{Symbol: "XRPUSDT", QuoteVolume: 700},
		{Symbol: "BNBUSDT", QuoteVolume: 1100},
	}

	tests := []struct {
		name    string
		k       int
		exclude []string
		want    []string
	}{
		{
			name: "ranked by quote volume descending",
			k:    3,
			want: []string{"BTC", "ETH", "BNB"},
		},
		{
			name:    "exclude list honoured",
			k:       3,
			exclude: []string{"BTC", "ETH"},
			want:    []string{"BNB", "SOL", "XRP"},
		},
		{
			name: "k larger than candidates",
			k:    10,
			want: []string{"BTC", "ETH", "BNB", "SOL", "XRP"},
		},
		{
			name: "k zero",
			k:    0,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := picker.TopBases(volumes, tt.k, tt.exclude)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPicker_TopBases_TiesKeepSourceOrder(t *testing.T) {
	picker := NewPicker(Config{QuoteAsset: "USDT"})
	volumes := []domain.SymbolVolume{
		{Symbol: "AAAUSDT", QuoteVolume: 100},
		{Symbol: "BBBUSDT", QuoteVolume: 100},
		{Symbol: "CCCUSDT", QuoteVolume: 100},
	}
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, picker.TopBases(volumes, 3, nil))
}

func TestPicker_TopBases_CustomStablecoins(t *testing.T) {
	picker := NewPicker(Config{QuoteAsset: "USDT", Stablecoins: []string{"FOO"}})
	volumes := []domain.SymbolVolume{
		{Symbol: "FOOUSDT", QuoteVolume: 9000},
		{Symbol: "USDCUSDT", QuoteVolume: 8000}, // not excluded under the custom set
		{Symbol: "BTCUSDT", QuoteVolume: 100},
	}
	assert.Equal(t, []string{"USDC", "BTC"}, picker.TopBases(volumes, 3, nil))
}

func TestPicker_TopBases_QuoteOnlySymbolSkipped(t *testing.T) {
	picker := NewPicker(Config{QuoteAsset: "USDT"})
	volumes := []domain.SymbolVolume{
		{Symbol: "USDT", QuoteVolume: 9000},
		{Symbol: "BTCUSDT", QuoteVolume: 100},
	}
	assert.Equal(t, []string{"BTC"}, picker.TopBases(volumes, 2, nil))
}
