package aggregate

import "sync"

// PriceOracle looks up a USD price for a token symbol. Unknown symbols
// return ok=false; the aggregator treats that as a zero contribution
// rather than an error.
type PriceOracle interface {
	PriceUSD(symbol string) (price float64, ok bool)
}

// StaticPriceOracle is an in-memory, non-authoritative PriceOracle used by
// cmd/scoreservice and tests. It never calls out to a live price feed; its
// seed table is the only source of truth it has.
type StaticPriceOracle struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// NewStaticPriceOracle returns an oracle pre-seeded with reasonable prices
// for the most common tokens across the supported networks.
func NewStaticPriceOracle() *StaticPriceOracle {
	return &StaticPriceOracle{
		prices: map[string]float64{
			"ETH":   2500.0,
			"WETH":  2500.0,
			"BTC":   45000.0,
			"WBTC":  45000.0,
			"USDC":  1.0,
			"USDT":  1.0,
			"DAI":   1.0,
			"BUSD":  1.0,
			"FRAX":  1.0,
			"LUSD":  1.0,
			"MATIC": 0.7,
			"BNB":   300.0,
			"AVAX":  25.0,
			"FTM":   0.4,
		},
	}
}

// PriceUSD implements PriceOracle.
func (o *StaticPriceOracle) PriceUSD(symbol string) (float64, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	price, ok := o.prices[symbol]
	return price, ok
}

// SetPrice updates or adds a symbol's price. Used by tests and by
// cmd/scoreservice to refresh quotes from whatever feed it wires up.
func (o *StaticPriceOracle) SetPrice(symbol string, price float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prices[symbol] = price
}
