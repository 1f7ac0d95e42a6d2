// Package logtable holds the piecewise-linear logarithm constants and
// related circuit parameters the scoring engine and the witness validator
// both depend on. These constants are the circuit's; changing any of them
// silently breaks proofs, so a change here requires a new VersionID.
package logtable

// Scale is the fixed-point denominator every ratio, probability, or
// percentage in the circuit uses. A ratio of 0.667 is encoded as 667.
const Scale = 1000

// BaseScoreScaled is the starting point of the credit score before any
// component or penalty is applied (300 points, scaled ×1000).
const BaseScoreScaled = 300 * Scale

// MaxScoreScaled and MinScoreScaled bound the clamp applied to the raw
// scaled score.
const (
	MaxScoreScaled = 900 * Scale
	MinScoreScaled = 0
)

// CurrentFeatureVersion and CurrentEngineVersion are the semantic version
// strings stamped onto every FeatureVector and ScoreResult, mirrored from
// the original backend's FEATURE_EXTRACTION_VERSION / CREDIT_ENGINE_VERSION
// constants. The witness formatter rejects a feature vector whose major
// version does not match.
const (
	CurrentFeatureVersion = "1.3.0"
	CurrentEngineVersion  = "1.0.0"
)

// Base parameters for LogScale: balance, age, and transaction-count
// logarithmic scalings each use a distinct base.
const (
	BaseBalance      = 11
	BaseAgeDays      = 731
	BaseTransactions = 1001
)

// logBase holds the precomputed log(base) constants (scaled ×1000) the
// circuit uses as the LogScale denominator.
var logBase = map[int64]int64{
	BaseBalance:      2398,
	BaseAgeDays:      6594,
	BaseTransactions: 6909,
}

// LogScale is the circuit's piecewise-linear approximation of
// log(value+1)/log(base), evaluated entirely in 1000-scaled fixed point
// with truncating integer division throughout. value is always an
// unscaled, non-negative integer (a raw token-amount, day-count, or
// transaction-count, never a ratio). The result is in [0, 1000],
// representing [0.0, 1.0]; it saturates to 1000 for any value >= 10^6.
func LogScale(value, base int64) int64 {
	if value == 0 {
		return 0
	}

	var logValue int64
	switch {
	case value <= 10:
		logValue = (value * 693) / 1000
	case value <= 100:
		logValue = 2398 + ((value-10)*223)/10000
	case value <= 1000:
		logValue = 4615 + ((value-100)*246)/100000
	default:
		logValue = 6908 + ((value-1000)*231)/1000000
	}

	denom := logBaseFor(base)
	ratio := (logValue * 1000) / denom
	if ratio > 1000 {
		return 1000
	}
	return ratio
}

func logBaseFor(base int64) int64 {
	if v, ok := logBase[base]; ok {
		return v
	}
	// Unreachable for the three base parameters the circuit defines; a
	// caller passing any other base is a programmer error.
	panic("logtable: unsupported log base")
}
