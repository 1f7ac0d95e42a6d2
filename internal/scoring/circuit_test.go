package scoring

import (
	"testing"

	"github.com/rawblock/zk-credit-score/internal/logtable"
	"github.com/rawblock/zk-credit-score/pkg/models"
)

func emptyWalletFeatures() models.FeatureVector {
	return models.FeatureVector{FeatureVersion: logtable.CurrentFeatureVersion}
}

// An empty wallet scores exactly 300 with every component 0.
func TestCircuitEngine_EmptyWallet(t *testing.T) {
	e := NewCircuitEngine()
	result := e.Compute(emptyWalletFeatures(), logtable.CurrentEngineVersion)

	if result.CreditScore != 300 {
		t.Errorf("CreditScore = %d, want 300", result.CreditScore)
	}
	if result.Components.RepaymentBehaviorScaled != 0 {
		t.Errorf("RepaymentBehaviorScaled = %d, want 0", result.Components.RepaymentBehaviorScaled)
	}
	if result.Components.CapitalManagementScaled != 0 {
		t.Errorf("CapitalManagementScaled = %d, want 0", result.Components.CapitalManagementScaled)
	}
	if result.Components.RiskPenaltiesScaled != 0 {
		t.Errorf("RiskPenaltiesScaled = %d, want 0", result.Components.RiskPenaltiesScaled)
	}
	if result.FinalScoreScaled != 300000 {
		t.Errorf("FinalScoreScaled = %d, want 300000", result.FinalScoreScaled)
	}
}

// A borrower with a maxed-out repayment ratio and no liquidations gets the
// full 210000-scaled repayment component; adding liquidations both removes
// the no-liquidation bonus and adds the liquidation penalty. Expected
// values below are derived by hand from the exact formulas in circuit.go.
func TestCircuitEngine_ExcellentBorrowerVsLiquidated(t *testing.T) {
	e := NewCircuitEngine()

	base := models.FeatureVector{
		FeatureVersion: logtable.CurrentFeatureVersion,
		Financial: models.FinancialFeatures{
			CurrentBalanceNative: 5,
			MaxBalanceNative:     10,
			BalanceVolatility:    0.15,
		},
		Protocol: models.ProtocolInteractionFeatures{
			BorrowCount:         10,
			RepayCount:          10,
			TotalProtocolEvents: 50,
		},
		Activity: models.ActivityFeatures{
			TotalTransactions: 500,
			ActiveDaysRatio:   0.82,
		},
		Temporal: models.TemporalFeatures{
			WalletAgeDays:              730,
			TransactionRegularityScore: 0.85,
		},
	}

	excellent := e.Compute(base, logtable.CurrentEngineVersion)
	if excellent.Components.RepaymentBehaviorScaled != 210000 {
		t.Errorf("RepaymentBehaviorScaled = %d, want 210000 (maxed)", excellent.Components.RepaymentBehaviorScaled)
	}
	if excellent.FinalScoreScaled != 718260 {
		t.Errorf("FinalScoreScaled = %d, want 718260", excellent.FinalScoreScaled)
	}
	if excellent.ScoreBand != models.BandGood {
		t.Errorf("ScoreBand = %s, want Good", excellent.ScoreBand)
	}

	liquidated := base
	liquidated.Protocol.LiquidationCount = 3
	liquidatedResult := e.Compute(liquidated, logtable.CurrentEngineVersion)

	if liquidatedResult.Components.RepaymentBehaviorScaled != 150000 {
		t.Errorf("liquidated RepaymentBehaviorScaled = %d, want 150000 (bonus lost)", liquidatedResult.Components.RepaymentBehaviorScaled)
	}
	if liquidatedResult.Components.RiskPenaltiesScaled != 300000 {
		t.Errorf("liquidated RiskPenaltiesScaled = %d, want 300000", liquidatedResult.Components.RiskPenaltiesScaled)
	}
	drop := excellent.FinalScoreScaled - liquidatedResult.FinalScoreScaled
	if drop != 360000 {
		t.Errorf("score drop = %d scaled points, want exactly 360000 (60000 lost bonus + 300000 penalty)", drop)
	}
}

// Each risk-penalty term is computed independently.
func TestCircuitEngine_HighVolatilityTrader(t *testing.T) {
	e := NewCircuitEngine()
	f := models.FeatureVector{
		FeatureVersion: logtable.CurrentFeatureVersion,
		Financial: models.FinancialFeatures{
			CurrentBalanceNative: 0.1,
			BalanceVolatility:    1.5,
			SuddenDropsCount:     4,
		},
		Temporal: models.TemporalFeatures{
			BurstActivityRatio: 0.8,
		},
		Risk: models.RiskFeatures{
			FailedTransactionRatio: 0.12,
		},
	}

	capital := e.ComputeCapital(f)
	// Balance score from logscale(0, 11) = 0, stability gated off since
	// volatility >= 1.0, history also 0.
	if capital != 0 {
		t.Errorf("capital score = %d, want 0 (volatility gates stability off)", capital)
	}

	penalty := e.ComputeRiskPenalty(f)
	// high volatility 50000 + sudden drops 4*15000=60000 + burst 25000 +
	// failed tx (120*20000)/50=48000
	want := int64(50000 + 60000 + 25000 + 48000)
	if penalty != want {
		t.Errorf("risk penalty = %d, want %d", penalty, want)
	}
}

// Logarithmic scaling saturates at 1000 for very large balances, capping
// the history component at 30 points.
func TestCircuitEngine_LogarithmSaturation(t *testing.T) {
	e := NewCircuitEngine()
	f := models.FeatureVector{
		FeatureVersion: logtable.CurrentFeatureVersion,
		Financial: models.FinancialFeatures{
			MaxBalanceNative: 1_000_000_000,
		},
	}

	if got := logtable.LogScale(1_000_000_000, logtable.BaseBalance); got != 1000 {
		t.Errorf("LogScale(1e9, 11) = %d, want 1000", got)
	}

	// ComputeCapital also includes the stability term, so isolate the
	// history term by subtracting the capital score without a max balance.
	withoutHistory := f
	withoutHistory.Financial.MaxBalanceNative = 0
	history := e.ComputeCapital(f) - e.ComputeCapital(withoutHistory)
	if history != 30000 {
		t.Errorf("history component = %d, want 30000 (maxed)", history)
	}
}

func TestCircuitEngine_BorrowCountZero_RepaymentAlwaysZero(t *testing.T) {
	e := NewCircuitEngine()
	for _, repays := range []int{0, 1, 50} {
		f := models.FeatureVector{Protocol: models.ProtocolInteractionFeatures{RepayCount: repays}}
		if got := e.ComputeRepayment(f); got != 0 {
			t.Errorf("RepayCount=%d: ComputeRepayment = %d, want 0", repays, got)
		}
	}
}

func TestCircuitEngine_FinalScoreAlwaysInRange(t *testing.T) {
	e := NewCircuitEngine()
	inputs := []models.FeatureVector{
		emptyWalletFeatures(),
		{
			Protocol: models.ProtocolInteractionFeatures{LiquidationCount: 1000, BorrowCount: 1000},
			Financial: models.FinancialFeatures{
				BalanceVolatility: 50,
				SuddenDropsCount:  1000,
			},
			Temporal: models.TemporalFeatures{DaysSinceLastActivity: 100000},
			Risk:     models.RiskFeatures{ZeroBalancePeriods: 1000, FailedTransactionRatio: 10},
		},
	}
	for i, f := range inputs {
		result := e.Compute(f, logtable.CurrentEngineVersion)
		if result.FinalScoreScaled < 0 || result.FinalScoreScaled > 900000 {
			t.Errorf("case %d: FinalScoreScaled = %d, want in [0, 900000]", i, result.FinalScoreScaled)
		}
		if result.CreditScore != int(result.FinalScoreScaled/logtable.Scale) {
			t.Errorf("case %d: CreditScore = %d, want FinalScoreScaled/1000 = %d", i, result.CreditScore, result.FinalScoreScaled/logtable.Scale)
		}
	}
}
