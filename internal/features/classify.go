package features

import "github.com/rawblock/zk-credit-score/pkg/models"

// ClassifyBehavior buckets the numeric features into the presentational
// classification. It is deterministic and has no access to anything
// beyond the five feature groups already extracted.
func ClassifyBehavior(
	activity models.ActivityFeatures,
	financial models.FinancialFeatures,
	protocol models.ProtocolInteractionFeatures,
	risk models.RiskFeatures,
	temporal models.TemporalFeatures,
) models.BehavioralClassification {
	return models.BehavioralClassification{
		Longevity:      longevityClass(temporal),
		Activity:       activityClass(activity),
		Capital:        capitalClass(financial),
		CreditBehavior: creditBehaviorClass(protocol),
		Risk:           riskClass(financial, protocol, risk, temporal),
	}
}

func longevityClass(t models.TemporalFeatures) models.Longevity {
	switch {
	case t.WalletAgeDays < 30:
		return models.LongevityNew
	case t.WalletAgeDays < 365:
		return models.LongevityEstablished
	default:
		return models.LongevityVeteran
	}
}

func activityClass(a models.ActivityFeatures) models.ActivityClass {
	switch {
	case a.TotalTransactions == 0:
		return models.ActivityDormant
	case a.TransactionsPerDay < 0.1:
		return models.ActivityOccasional
	case a.TransactionsPerDay < 5.0:
		return models.ActivityActive
	default:
		return models.ActivityHyperactive
	}
}

func capitalClass(f models.FinancialFeatures) models.CapitalClass {
	balance := f.CurrentBalanceNative
	switch {
	case balance < 0.01:
		return models.CapitalMicro
	case balance < 0.1:
		return models.CapitalSmall
	case balance < 1.0:
		return models.CapitalMedium
	case balance < 10.0:
		return models.CapitalLarge
	default:
		return models.CapitalWhale
	}
}

func creditBehaviorClass(p models.ProtocolInteractionFeatures) models.CreditBehaviorClass {
	switch {
	case p.TotalProtocolEvents == 0:
		return models.CreditNoHistory
	case p.LiquidationCount > 0:
		return models.CreditDefaulter
	case p.BorrowCount > 0:
		if p.RepayToBorrowRatio >= 0.8 {
			return models.CreditResponsible
		}
		return models.CreditRisky
	default:
		return models.CreditNoHistory
	}
}

func riskClass(f models.FinancialFeatures, p models.ProtocolInteractionFeatures, r models.RiskFeatures, t models.TemporalFeatures) models.RiskClass {
	score := 0

	if p.LiquidationCount > 0 {
		score += 3
	}

	switch {
	case r.FailedTransactionRatio > 0.1:
		score += 2
	case r.FailedTransactionRatio > 0.05:
		score += 1
	}

	switch {
	case f.SuddenDropsCount > 3:
		score += 2
	case f.SuddenDropsCount > 1:
		score += 1
	}

	if r.ZeroBalancePeriods > 5 {
		score += 1
	}

	if t.DaysSinceLastActivity > 180 {
		score += 1
	}

	switch {
	case score == 0:
		return models.RiskLow
	case score <= 2:
		return models.RiskMedium
	case score <= 4:
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}
