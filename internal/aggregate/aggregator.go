package aggregate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rawblock/zk-credit-score/internal/coreerrors"
	"github.com/rawblock/zk-credit-score/pkg/models"
)

// MaxConcurrentNetworks bounds how many per-network extractions run at
// once by default.
const MaxConcurrentNetworks = 5

// NetworkExtractor produces a FeatureVector for one wallet on one network.
// internal/features.Extractor does not implement this directly, since it
// has no notion of fetching transaction history. This module ships no
// implementation: cmd/scoreservice constructs its Aggregator with a nil
// extractor and an empty probe set, so no network is ever extracted there.
type NetworkExtractor interface {
	ExtractFeatures(ctx context.Context, walletAddress, network string, windowDays *int) (models.FeatureVector, error)
}

// networkTokenSymbol maps a network name to its native token's price-oracle
// symbol. Unlisted networks fall back to "ETH".
var networkTokenSymbol = map[string]string{
	"ethereum":  "ETH",
	"polygon":   "MATIC",
	"arbitrum":  "ETH",
	"optimism":  "ETH",
	"base":      "ETH",
	"bnb":       "BNB",
	"avalanche": "AVAX",
	"fantom":    "FTM",
}

// Aggregator extracts features for a wallet across multiple networks and
// reduces them into one MultiChainFeatureVector.
type Aggregator struct {
	Probes    map[string]ActivityProbe
	Extractor NetworkExtractor
	Oracle    PriceOracle

	// MaxConcurrent bounds per-network fan-out; 0 means MaxConcurrentNetworks.
	MaxConcurrent int
}

// NewAggregator returns an Aggregator wired to the given per-network probes,
// a shared extractor, and a price oracle for USD totals.
func NewAggregator(probes map[string]ActivityProbe, extractor NetworkExtractor, oracle PriceOracle) *Aggregator {
	return &Aggregator{Probes: probes, Extractor: extractor, Oracle: oracle}
}

func (a *Aggregator) maxConcurrent() int {
	if a.MaxConcurrent > 0 {
		return a.MaxConcurrent
	}
	return MaxConcurrentNetworks
}

// ActiveNetworks consults each network's ActivityProbe and returns the
// subset of candidateNetworks the wallet has any activity on. A network
// with no registered probe, or whose probe errors, is excluded rather
// than failing the whole call.
func (a *Aggregator) ActiveNetworks(ctx context.Context, walletAddress string, candidateNetworks []string) []string {
	var mu sync.Mutex
	var active []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrent())

	for _, network := range candidateNetworks {
		network := network
		probe, ok := a.Probes[network]
		if !ok {
			continue
		}
		g.Go(func() error {
			has, err := probe.HasActivity(gctx, walletAddress, network)
			if err != nil || !has {
				return nil
			}
			mu.Lock()
			active = append(active, network)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return active
}

// Extract runs feature extraction across every network the wallet is
// active on (bounded to a.maxConcurrent() in flight) and reduces the
// results into a MultiChainFeatureVector. A per-network extraction
// failure is recorded in the result's Errors and otherwise ignored; the
// overall call only fails outright if every network failed.
func (a *Aggregator) Extract(
	ctx context.Context,
	walletAddress string,
	candidateNetworks []string,
	windowDays *int,
) (models.MultiChainFeatureVector, error) {
	active := a.ActiveNetworks(ctx, walletAddress, candidateNetworks)

	var mu sync.Mutex
	perNetwork := make(map[string]models.FeatureVector, len(active))
	var networkErrors []models.NetworkError

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrent())

	for _, network := range active {
		network := network
		g.Go(func() error {
			features, err := a.Extractor.ExtractFeatures(gctx, walletAddress, network, windowDays)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				networkErrors = append(networkErrors, models.NetworkError{
					Network: network,
					Err:     fmt.Errorf("feature extraction failed for %s: %w", network, err),
				})
				return nil
			}
			perNetwork[network] = features
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.MultiChainFeatureVector{}, err
	}

	if len(perNetwork) == 0 && len(networkErrors) > 0 {
		return models.MultiChainFeatureVector{}, &coreerrors.PartialResult{Failures: toCoreNetworkErrors(networkErrors)}
	}

	return a.aggregate(walletAddress, perNetwork, networkErrors), nil
}

func toCoreNetworkErrors(errs []models.NetworkError) []coreerrors.NetworkError {
	out := make([]coreerrors.NetworkError, len(errs))
	for i, e := range errs {
		out[i] = coreerrors.NetworkError{Network: e.Network, Err: e.Err}
	}
	return out
}

// aggregate reduces per-network FeatureVectors into element-wise totals
// and an overall behavioral classification.
func (a *Aggregator) aggregate(
	walletAddress string,
	perNetwork map[string]models.FeatureVector,
	networkErrors []models.NetworkError,
) models.MultiChainFeatureVector {
	networks := make([]string, 0, len(perNetwork))
	totals := models.AggregatedTotals{}

	for network, f := range perNetwork {
		networks = append(networks, network)
		totals.TotalTransactions += f.Activity.TotalTransactions
		totals.TotalProtocolInteractions += f.Protocol.TotalProtocolEvents
		totals.TotalLiquidations += f.Protocol.LiquidationCount
	}

	totals.TotalBalanceUSD = a.totalBalanceUSD(perNetwork)

	return models.MultiChainFeatureVector{
		NetworksAnalyzed:      networks,
		PerNetwork:            perNetwork,
		AggregatedTotals:      totals,
		OverallClassification: reduceClassifications(perNetwork),
		ExtractedAt:           extractedAt(perNetwork),
		Errors:                networkErrors,
	}
}

// totalBalanceUSD sums each network's native balance converted through the
// price oracle, grouping by token symbol first so a wallet holding ETH on
// three L2s is priced once per unique token, not once per network call.
func (a *Aggregator) totalBalanceUSD(perNetwork map[string]models.FeatureVector) float64 {
	if a.Oracle == nil {
		return 0
	}

	balanceBySymbol := make(map[string]float64)
	for network, f := range perNetwork {
		if f.Financial.CurrentBalanceNative <= 0 {
			continue
		}
		symbol, ok := networkTokenSymbol[network]
		if !ok {
			symbol = "ETH"
		}
		balanceBySymbol[symbol] += f.Financial.CurrentBalanceNative
	}

	var totalUSD float64
	for symbol, balance := range balanceBySymbol {
		if price, ok := a.Oracle.PriceUSD(symbol); ok {
			totalUSD += balance * price
		}
	}
	return roundUSD(totalUSD)
}

func roundUSD(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func extractedAt(perNetwork map[string]models.FeatureVector) time.Time {
	var latest time.Time
	for _, f := range perNetwork {
		if f.ExtractedAt.After(latest) {
			latest = f.ExtractedAt
		}
	}
	return latest
}
