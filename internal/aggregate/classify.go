package aggregate

import "github.com/rawblock/zk-credit-score/pkg/models"

var longevityRank = map[models.Longevity]int{
	models.LongevityNew:         0,
	models.LongevityEstablished: 1,
	models.LongevityVeteran:     2,
}

var activityRank = map[models.ActivityClass]int{
	models.ActivityDormant:     0,
	models.ActivityOccasional:  1,
	models.ActivityActive:      2,
	models.ActivityHyperactive: 3,
}

var capitalRank = map[models.CapitalClass]int{
	models.CapitalMicro:  0,
	models.CapitalSmall:  1,
	models.CapitalMedium: 2,
	models.CapitalLarge:  3,
	models.CapitalWhale:  4,
}

var riskRank = map[models.RiskClass]int{
	models.RiskLow:      0,
	models.RiskMedium:   1,
	models.RiskHigh:     2,
	models.RiskCritical: 3,
}

// reduceClassifications folds per-network BehavioralClassifications into one
// overall classification by taking the most mature/active/risky value under
// each dimension's fixed ordering.
func reduceClassifications(perNetwork map[string]models.FeatureVector) models.BehavioralClassification {
	if len(perNetwork) == 0 {
		return models.BehavioralClassification{}
	}

	var overall models.BehavioralClassification
	var sawDefaulter, sawRisky, sawResponsible bool

	first := true
	for _, f := range perNetwork {
		c := f.Classification
		if first {
			overall.Longevity = c.Longevity
			overall.Activity = c.Activity
			overall.Capital = c.Capital
			overall.Risk = c.Risk
			first = false
		} else {
			if longevityRank[c.Longevity] > longevityRank[overall.Longevity] {
				overall.Longevity = c.Longevity
			}
			if activityRank[c.Activity] > activityRank[overall.Activity] {
				overall.Activity = c.Activity
			}
			if capitalRank[c.Capital] > capitalRank[overall.Capital] {
				overall.Capital = c.Capital
			}
			if riskRank[c.Risk] > riskRank[overall.Risk] {
				overall.Risk = c.Risk
			}
		}

		switch c.CreditBehavior {
		case models.CreditDefaulter:
			sawDefaulter = true
		case models.CreditRisky:
			sawRisky = true
		case models.CreditResponsible:
			sawResponsible = true
		}
	}

	switch {
	case sawDefaulter:
		overall.CreditBehavior = models.CreditDefaulter
	case sawRisky:
		overall.CreditBehavior = models.CreditRisky
	case sawResponsible:
		overall.CreditBehavior = models.CreditResponsible
	default:
		overall.CreditBehavior = models.CreditNoHistory
	}

	return overall
}
