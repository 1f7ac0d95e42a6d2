package aggregate

import (
	"context"
	"errors"
	"testing"

	"github.com/rawblock/zk-credit-score/pkg/models"
)

type fakeProbe struct {
	active bool
	err    error
}

func (p fakeProbe) HasActivity(ctx context.Context, walletAddress, network string) (bool, error) {
	return p.active, p.err
}

type fakeExtractor struct {
	byNetwork map[string]models.FeatureVector
	errs      map[string]error
}

func (e fakeExtractor) ExtractFeatures(ctx context.Context, walletAddress, network string, windowDays *int) (models.FeatureVector, error) {
	if err, ok := e.errs[network]; ok {
		return models.FeatureVector{}, err
	}
	return e.byNetwork[network], nil
}

func TestActiveNetworks_ExcludesDormantAndUnprobedNetworks(t *testing.T) {
	a := &Aggregator{
		Probes: map[string]ActivityProbe{
			"ethereum": fakeProbe{active: true},
			"polygon":  fakeProbe{active: false},
			"base":     fakeProbe{err: errors.New("rpc down")},
		},
	}

	active := a.ActiveNetworks(context.Background(), "0xabc", []string{"ethereum", "polygon", "base", "arbitrum"})

	if len(active) != 1 || active[0] != "ethereum" {
		t.Errorf("ActiveNetworks = %v, want [ethereum]", active)
	}
}

func TestExtract_AggregatesTotalsAndMostMatureClassification(t *testing.T) {
	ethereum := models.FeatureVector{
		Activity:  models.ActivityFeatures{TotalTransactions: 100},
		Protocol:  models.ProtocolInteractionFeatures{TotalProtocolEvents: 10, LiquidationCount: 0},
		Financial: models.FinancialFeatures{CurrentBalanceNative: 2},
		Classification: models.BehavioralClassification{
			Longevity:      models.LongevityVeteran,
			Activity:       models.ActivityOccasional,
			Capital:        models.CapitalSmall,
			CreditBehavior: models.CreditResponsible,
			Risk:           models.RiskLow,
		},
	}
	polygon := models.FeatureVector{
		Activity:  models.ActivityFeatures{TotalTransactions: 50},
		Protocol:  models.ProtocolInteractionFeatures{TotalProtocolEvents: 5, LiquidationCount: 1},
		Financial: models.FinancialFeatures{CurrentBalanceNative: 100},
		Classification: models.BehavioralClassification{
			Longevity:      models.LongevityNew,
			Activity:       models.ActivityHyperactive,
			Capital:        models.CapitalWhale,
			CreditBehavior: models.CreditDefaulter,
			Risk:           models.RiskCritical,
		},
	}

	a := NewAggregator(
		map[string]ActivityProbe{
			"ethereum": fakeProbe{active: true},
			"polygon":  fakeProbe{active: true},
		},
		fakeExtractor{byNetwork: map[string]models.FeatureVector{
			"ethereum": ethereum,
			"polygon":  polygon,
		}},
		NewStaticPriceOracle(),
	)

	result, err := a.Extract(context.Background(), "0xabc", []string{"ethereum", "polygon"}, nil)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if result.AggregatedTotals.TotalTransactions != 150 {
		t.Errorf("TotalTransactions = %d, want 150", result.AggregatedTotals.TotalTransactions)
	}
	if result.AggregatedTotals.TotalProtocolInteractions != 15 {
		t.Errorf("TotalProtocolInteractions = %d, want 15", result.AggregatedTotals.TotalProtocolInteractions)
	}
	if result.AggregatedTotals.TotalLiquidations != 1 {
		t.Errorf("TotalLiquidations = %d, want 1", result.AggregatedTotals.TotalLiquidations)
	}

	// ethereum: 2 ETH @ 2500 = 5000; polygon: 100 MATIC @ 0.7 = 70
	if result.AggregatedTotals.TotalBalanceUSD != 5070 {
		t.Errorf("TotalBalanceUSD = %v, want 5070", result.AggregatedTotals.TotalBalanceUSD)
	}

	want := models.BehavioralClassification{
		Longevity:      models.LongevityVeteran,
		Activity:       models.ActivityHyperactive,
		Capital:        models.CapitalWhale,
		CreditBehavior: models.CreditDefaulter,
		Risk:           models.RiskCritical,
	}
	if result.OverallClassification != want {
		t.Errorf("OverallClassification = %+v, want %+v", result.OverallClassification, want)
	}
}

func TestExtract_PartialFailureStillReturnsSuccessfulNetworks(t *testing.T) {
	a := NewAggregator(
		map[string]ActivityProbe{
			"ethereum": fakeProbe{active: true},
			"base":     fakeProbe{active: true},
		},
		fakeExtractor{
			byNetwork: map[string]models.FeatureVector{
				"ethereum": {Activity: models.ActivityFeatures{TotalTransactions: 5}},
			},
			errs: map[string]error{
				"base": errors.New("indexer timeout"),
			},
		},
		NewStaticPriceOracle(),
	)

	result, err := a.Extract(context.Background(), "0xabc", []string{"ethereum", "base"}, nil)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(result.PerNetwork) != 1 {
		t.Errorf("PerNetwork = %v, want exactly ethereum", result.PerNetwork)
	}
	if len(result.Errors) != 1 || result.Errors[0].Network != "base" {
		t.Errorf("Errors = %v, want one failure for base", result.Errors)
	}
}

func TestExtract_AllNetworksFailReturnsPartialResultError(t *testing.T) {
	a := NewAggregator(
		map[string]ActivityProbe{"ethereum": fakeProbe{active: true}},
		fakeExtractor{errs: map[string]error{"ethereum": errors.New("down")}},
		NewStaticPriceOracle(),
	)

	_, err := a.Extract(context.Background(), "0xabc", []string{"ethereum"}, nil)
	if err == nil {
		t.Fatal("Extract should error when every network fails")
	}
}
