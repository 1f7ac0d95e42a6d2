// Package scoring implements the credit-scoring engine in two parallel
// forms: CircuitEngine (integer-only, bit-exact with the arithmetic
// circuit) and ReadableEngine (floating point, for human display). Both
// share the piecewise-linear log table in internal/logtable.
//
// Every formula, constant, and division order in CircuitEngine must match
// the arithmetic circuit exactly. This is the one place where drift would
// cause proof generation to fail silently at constraint time.
package scoring

import (
	"time"

	"github.com/rawblock/zk-credit-score/internal/logtable"
	"github.com/rawblock/zk-credit-score/pkg/models"
)

// CircuitEngine computes a credit score using only integer arithmetic that
// matches the downstream Groth16 circuit bit-exactly. All intermediate
// values fit within 64 bits for in-range inputs (worst case product is
// about 900,000 x 1000, well under 2^63).
type CircuitEngine struct{}

// NewCircuitEngine returns the circuit-parallel scoring engine. It carries
// no state; a zero value is usable directly.
func NewCircuitEngine() *CircuitEngine { return &CircuitEngine{} }

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// ComputeRepayment computes the repayment-behavior component (max 210,000
// scaled). Returns 0 if the wallet has never borrowed, regardless of
// repay count.
func (e *CircuitEngine) ComputeRepayment(f models.FeatureVector) int64 {
	borrowCount := int64(f.Protocol.BorrowCount)
	repayCount := int64(f.Protocol.RepayCount)
	liquidationCount := int64(f.Protocol.LiquidationCount)

	if borrowCount == 0 {
		return 0
	}

	repayRatio := (repayCount * 1000) / borrowCount
	ratioCapped := minI64(repayRatio, 1000)
	ratioScore := ratioCapped * 150

	noLiquidationBonus := int64(0)
	if liquidationCount == 0 {
		noLiquidationBonus = 60000
	}

	return ratioScore + noLiquidationBonus
}

// ComputeCapital computes the capital-management component (max 180,000
// scaled). Balances are passed to LogScale as unscaled integer token
// amounts; passing a pre-scaled value here is the easiest way to silently
// corrupt this component.
func (e *CircuitEngine) ComputeCapital(f models.FeatureVector) int64 {
	currentBalanceUnscaled := int64(f.Financial.CurrentBalanceNative)
	maxBalanceUnscaled := int64(f.Financial.MaxBalanceNative)
	volatilityScaled := int64(f.Financial.BalanceVolatility * logtable.Scale)

	balanceLog := logtable.LogScale(currentBalanceUnscaled, logtable.BaseBalance)
	balanceScore := balanceLog * 90

	volCapped := minI64(volatilityScaled, 1000)
	stabilityRatio := int64(1000) - volCapped
	volCheck := int64(0)
	if volatilityScaled < 1000 {
		volCheck = 1
	}
	stabilityScore := stabilityRatio * 60 * volCheck

	maxBalanceLog := logtable.LogScale(maxBalanceUnscaled, logtable.BaseBalance)
	historyScore := maxBalanceLog * 30

	return balanceScore + stabilityScore + historyScore
}

// ComputeLongevity computes the wallet-longevity component (max 90,000
// scaled).
func (e *CircuitEngine) ComputeLongevity(f models.FeatureVector) int64 {
	walletAgeDays := int64(f.Temporal.WalletAgeDays)
	activeDaysRatioScaled := int64(f.Activity.ActiveDaysRatio * logtable.Scale)

	ageLog := logtable.LogScale(walletAgeDays, logtable.BaseAgeDays)
	ageScore := ageLog * 60

	consistencyScore := activeDaysRatioScaled * 30

	return ageScore + consistencyScore
}

// ComputeActivity computes the activity-patterns component (max 60,000
// scaled).
func (e *CircuitEngine) ComputeActivity(f models.FeatureVector) int64 {
	totalTransactions := int64(f.Activity.TotalTransactions)
	regularityScaled := int64(f.Temporal.TransactionRegularityScore * logtable.Scale)

	txLog := logtable.LogScale(totalTransactions, logtable.BaseTransactions)
	frequencyScore := txLog * 30

	regularityScore := regularityScaled * 30

	return frequencyScore + regularityScore
}

// ComputeProtocol computes the protocol-diversity component (max 60,000
// scaled).
func (e *CircuitEngine) ComputeProtocol(f models.FeatureVector) int64 {
	totalEvents := int64(f.Protocol.TotalProtocolEvents)
	borrowCount := int64(f.Protocol.BorrowCount)

	interactionRatio := minI64(totalEvents*10, 1000)
	interactionScore := interactionRatio * 30

	borrowRatio := minI64(borrowCount*100, 1000)
	borrowExperienceScore := borrowRatio * 30

	return interactionScore + borrowExperienceScore
}

// ComputeRiskPenalty computes the total risk penalty (always >= 0,
// subtracted from the positive total).
func (e *CircuitEngine) ComputeRiskPenalty(f models.FeatureVector) int64 {
	liquidationCount := int64(f.Protocol.LiquidationCount)
	volatilityScaled := int64(f.Financial.BalanceVolatility * logtable.Scale)
	suddenDropsCount := int64(f.Financial.SuddenDropsCount)
	daysSinceLastActivity := int64(f.Temporal.DaysSinceLastActivity)
	zeroBalancePeriods := int64(f.Risk.ZeroBalancePeriods)
	burstActivityRatioScaled := int64(f.Temporal.BurstActivityRatio * logtable.Scale)
	failedTxRatioScaled := int64(f.Risk.FailedTransactionRatio * logtable.Scale)

	var penalty int64

	penalty += liquidationCount * 100000

	if volatilityScaled >= 1000 {
		penalty += 50000
	}

	penalty += suddenDropsCount * 15000

	if daysSinceLastActivity > 180 {
		penalty += (daysSinceLastActivity * 30000) / 180
	}

	if zeroBalancePeriods > 5 {
		penalty += (zeroBalancePeriods - 5) * 10000
	}

	if burstActivityRatioScaled > 500 {
		penalty += 25000
	}

	if failedTxRatioScaled > 50 {
		penalty += (failedTxRatioScaled * 20000) / 50
	}

	return penalty
}

// Compute computes the full ScoreResult for a feature vector using only
// integer arithmetic, then clamps the raw total to the valid score range
// and derives both band classifications from the final score.
func (e *CircuitEngine) Compute(f models.FeatureVector, engineVersion string) models.ScoreResult {
	repayment := e.ComputeRepayment(f)
	capital := e.ComputeCapital(f)
	longevity := e.ComputeLongevity(f)
	activity := e.ComputeActivity(f)
	protocol := e.ComputeProtocol(f)
	riskPenalty := e.ComputeRiskPenalty(f)

	positive := repayment + capital + longevity + activity + protocol
	raw := int64(logtable.BaseScoreScaled) + positive - riskPenalty
	final := maxI64(logtable.MinScoreScaled, minI64(raw, logtable.MaxScoreScaled))

	creditScore := int(final / logtable.Scale)

	return models.ScoreResult{
		CreditScore: creditScore,
		ScoreBand:   Band4(creditScore),
		ScoreBand6:  Band6(creditScore),
		Components: models.ScoreComponents{
			RepaymentBehavior: float64(repayment) / logtable.Scale,
			CapitalManagement: float64(capital) / logtable.Scale,
			WalletLongevity:   float64(longevity) / logtable.Scale,
			ActivityPatterns:  float64(activity) / logtable.Scale,
			ProtocolDiversity: float64(protocol) / logtable.Scale,
			RiskPenalties:     float64(riskPenalty) / logtable.Scale,

			RepaymentBehaviorScaled: repayment,
			CapitalManagementScaled: capital,
			WalletLongevityScaled:   longevity,
			ActivityPatternsScaled:  activity,
			ProtocolDiversityScaled: protocol,
			RiskPenaltiesScaled:     riskPenalty,
		},
		RawScoreScaled:   raw,
		FinalScoreScaled: final,
		Timestamp:        time.Now().UTC(),
		FeatureVersion:   f.FeatureVersion,
		EngineVersion:    engineVersion,
	}
}
