package scoring

import (
	"time"

	"github.com/rawblock/zk-credit-score/internal/logtable"
	"github.com/rawblock/zk-credit-score/internal/observability"
	"github.com/rawblock/zk-credit-score/pkg/models"
)

// ReadableEngine computes the same score as CircuitEngine but in floating
// point, logging each component's contribution for human-facing display.
// It evaluates the same piecewise-linear log approximation as the
// circuit, but continuously rather than with truncating integer division,
// so the two engines agree to within +/-1 on the final score. Using the
// true natural logarithm instead would diverge by many points for inputs
// near a segment boundary.
type ReadableEngine struct {
	handle observability.Handle
}

// NewReadableEngine returns a readable engine. A nil handle is replaced
// with observability.Null().
func NewReadableEngine(handle observability.Handle) *ReadableEngine {
	if handle == nil {
		handle = observability.Null()
	}
	return &ReadableEngine{handle: handle}
}

// logScaleFloat mirrors logtable.LogScale's piecewise segments exactly, at
// the same 1000-scaled magnitude, but evaluated continuously instead of
// with truncating integer division, dividing the result by 1000 to
// return a [0, 1] fraction. Re-deriving this in "real" log units instead
// (dropping the x1000 scale) would diverge from the circuit by many score
// points, since the circuit's per-segment slope constants do not actually
// track ln(1+x) once rescaled that way. They are circuit-specific
// constants, not a mathematically corrected approximation.
func logScaleFloat(value float64, base float64) float64 {
	if value <= 0 {
		return 0
	}

	var logValue float64
	switch {
	case value <= 10:
		logValue = value * 693.0 / 1000.0
	case value <= 100:
		logValue = 2398.0 + (value-10)*223.0/10000.0
	case value <= 1000:
		logValue = 4615.0 + (value-100)*246.0/100000.0
	default:
		logValue = 6908.0 + (value-1000)*231.0/1000000.0
	}

	var logBase float64
	switch base {
	case logtable.BaseBalance:
		logBase = 2398
	case logtable.BaseAgeDays:
		logBase = 6594
	default:
		logBase = 6909
	}

	ratio := logValue * 1000.0 / logBase
	if ratio > 1000.0 {
		ratio = 1000.0
	}
	if ratio < 0 {
		ratio = 0
	}
	return ratio / 1000.0
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Compute mirrors CircuitEngine.Compute in floating point, logging each
// component's breakdown through the injected Handle.
func (e *ReadableEngine) Compute(f models.FeatureVector, engineVersion string) models.ScoreResult {
	// Repayment
	repayment := 0.0
	if f.Protocol.BorrowCount > 0 {
		ratio := minF(float64(f.Protocol.RepayCount)/float64(f.Protocol.BorrowCount), 1.0)
		repayment = ratio * 150
		if f.Protocol.LiquidationCount == 0 {
			repayment += 60
		}
	}
	e.handle.Infof("repayment score: %.3f", repayment)

	// Capital
	balanceLog := logScaleFloat(f.Financial.CurrentBalanceNative, logtable.BaseBalance)
	balanceScore := balanceLog * 90
	volCapped := minF(f.Financial.BalanceVolatility, 1.0)
	stabilityScore := 0.0
	if f.Financial.BalanceVolatility < 1.0 {
		stabilityScore = (1.0 - volCapped) * 60
	}
	maxBalanceLog := logScaleFloat(f.Financial.MaxBalanceNative, logtable.BaseBalance)
	historyScore := maxBalanceLog * 30
	capital := balanceScore + stabilityScore + historyScore
	e.handle.Infof("capital score: balance=%.3f stability=%.3f history=%.3f total=%.3f",
		balanceScore, stabilityScore, historyScore, capital)

	// Longevity
	ageLog := logScaleFloat(float64(f.Temporal.WalletAgeDays), logtable.BaseAgeDays)
	ageScore := ageLog * 60
	consistencyScore := f.Activity.ActiveDaysRatio * 30
	longevity := ageScore + consistencyScore
	e.handle.Infof("longevity score: age=%.3f consistency=%.3f total=%.3f", ageScore, consistencyScore, longevity)

	// Activity
	txLog := logScaleFloat(float64(f.Activity.TotalTransactions), logtable.BaseTransactions)
	frequencyScore := txLog * 30
	regularityScore := f.Temporal.TransactionRegularityScore * 30
	activity := frequencyScore + regularityScore
	e.handle.Infof("activity score: frequency=%.3f regularity=%.3f total=%.3f", frequencyScore, regularityScore, activity)

	// Protocol
	interactionScore := minF(float64(f.Protocol.TotalProtocolEvents)/100.0, 1.0) * 30
	borrowExperienceScore := minF(float64(f.Protocol.BorrowCount)/10.0, 1.0) * 30
	protocol := interactionScore + borrowExperienceScore
	e.handle.Infof("protocol score: interaction=%.3f borrowExperience=%.3f total=%.3f",
		interactionScore, borrowExperienceScore, protocol)

	// Risk penalties (always >= 0)
	penalty := 0.0
	penalty += float64(f.Protocol.LiquidationCount) * 100
	if f.Financial.BalanceVolatility >= 1.0 {
		penalty += 50
	}
	penalty += float64(f.Financial.SuddenDropsCount) * 15
	if f.Temporal.DaysSinceLastActivity > 180 {
		penalty += float64(f.Temporal.DaysSinceLastActivity) / 180.0 * 30
	}
	if f.Risk.ZeroBalancePeriods > 5 {
		penalty += float64(f.Risk.ZeroBalancePeriods-5) * 10
	}
	if f.Temporal.BurstActivityRatio > 0.5 {
		penalty += 25
	}
	if f.Risk.FailedTransactionRatio > 0.05 {
		penalty += f.Risk.FailedTransactionRatio / 0.05 * 20
	}
	e.handle.Infof("risk penalty: %.3f", penalty)

	positive := repayment + capital + longevity + activity + protocol
	raw := 300.0 + positive - penalty
	final := clampF(raw, 0, 900)
	creditScore := int(final)

	e.handle.Infof("final score: raw=%.3f final=%d", raw, creditScore)

	return models.ScoreResult{
		CreditScore: creditScore,
		ScoreBand:   Band4(creditScore),
		ScoreBand6:  Band6(creditScore),
		Components: models.ScoreComponents{
			RepaymentBehavior: repayment,
			CapitalManagement: capital,
			WalletLongevity:   longevity,
			ActivityPatterns:  activity,
			ProtocolDiversity: protocol,
			RiskPenalties:     penalty,

			RepaymentBehaviorScaled: int64(repayment * logtable.Scale),
			CapitalManagementScaled: int64(capital * logtable.Scale),
			WalletLongevityScaled:   int64(longevity * logtable.Scale),
			ActivityPatternsScaled:  int64(activity * logtable.Scale),
			ProtocolDiversityScaled: int64(protocol * logtable.Scale),
			RiskPenaltiesScaled:     int64(penalty * logtable.Scale),
		},
		RawScoreScaled:   int64(raw * logtable.Scale),
		FinalScoreScaled: int64(final * logtable.Scale),
		Timestamp:        time.Now().UTC(),
		FeatureVersion:   f.FeatureVersion,
		EngineVersion:    engineVersion,
	}
}
