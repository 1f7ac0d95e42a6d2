package scoring

import "github.com/rawblock/zk-credit-score/pkg/models"

// Band4 maps a credit score to the four-level bucket: Poor < 580 <= Fair
// < 670 <= Good < 740 <= Excellent. This is the authoritative band
// carried on ScoreResult.ScoreBand; the on-chain verifier never inspects
// a band string at all, it only compares the score against a threshold.
func Band4(score int) models.ScoreBand {
	switch {
	case score < 580:
		return models.BandPoor
	case score < 670:
		return models.BandFair
	case score < 740:
		return models.BandGood
	default:
		return models.BandExcellent
	}
}

// Band6 is a finer six-level variant at thresholds 500/580/670/740/800.
// It is never consulted by the verifier and exists for display only.
func Band6(score int) models.ScoreBand6 {
	switch {
	case score < 500:
		return models.Band6Poor
	case score < 580:
		return models.Band6Fair
	case score < 670:
		return models.Band6Good
	case score < 740:
		return models.Band6VeryGood
	case score < 800:
		return models.Band6Excellent
	default:
		return models.Band6Exceptional
	}
}
