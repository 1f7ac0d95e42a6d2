// Package features turns raw ingestion records (pkg/models.FeatureRecord)
// into the deterministic, rule-based FeatureVector the scoring engine
// consumes.
package features

import (
	"math"
	"math/big"
	"sort"
	"time"

	"github.com/rawblock/zk-credit-score/internal/logtable"
	"github.com/rawblock/zk-credit-score/pkg/models"
)

// Extractor computes a FeatureVector from a FeatureRecord. It carries no
// state; a zero value is usable directly.
type Extractor struct{}

// NewExtractor returns a feature extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// Window builds the analysis window for days (nil means "lifetime", which
// starts at models.GenesisTimestamp).
func (e *Extractor) Window(name string, days *int, end time.Time) models.AnalysisWindow {
	start := models.GenesisTimestamp
	if days != nil {
		start = end.AddDate(0, 0, -*days)
	}
	return models.AnalysisWindow{Name: name, Days: days, Start: start, End: end}
}

// ExtractActivity derives transaction-frequency and gap features.
func (e *Extractor) ExtractActivity(txs []models.TransactionRecord, window models.AnalysisWindow, wallet models.WalletMetadata) models.ActivityFeatures {
	if len(txs) == 0 {
		return models.ActivityFeatures{
			TotalTransactions: int(wallet.TransactionCount),
		}
	}

	totalDays := int(window.End.Sub(window.Start).Hours() / 24)
	if totalDays == 0 {
		totalDays = 1
	}

	dateSet := map[string]time.Time{}
	for _, tx := range txs {
		if tx.Timestamp.IsZero() {
			continue
		}
		d := tx.Timestamp.UTC().Truncate(24 * time.Hour)
		dateSet[d.Format("2006-01-02")] = d
	}

	sortedDates := make([]time.Time, 0, len(dateSet))
	for _, d := range dateSet {
		sortedDates = append(sortedDates, d)
	}
	sort.Slice(sortedDates, func(i, j int) bool { return sortedDates[i].Before(sortedDates[j]) })

	activeDays := len(sortedDates)
	activeDaysRatio := 0.0
	if totalDays > 0 {
		activeDaysRatio = float64(activeDays) / float64(totalDays)
	}

	maxGap := 0
	for i := 1; i < len(sortedDates); i++ {
		gap := int(sortedDates[i].Sub(sortedDates[i-1]).Hours() / 24)
		if gap > maxGap {
			maxGap = gap
		}
	}

	daysSince := totalDays
	if len(sortedDates) > 0 {
		last := sortedDates[len(sortedDates)-1]
		daysSince = int(window.End.Truncate(24 * time.Hour).Sub(last).Hours() / 24)
	}

	txPerDay := 0.0
	if totalDays > 0 {
		txPerDay = float64(len(txs)) / float64(totalDays)
	}

	return models.ActivityFeatures{
		TotalTransactions:        len(txs),
		TransactionsPerDay:       round4(txPerDay),
		ActiveDays:               activeDays,
		TotalDays:                totalDays,
		ActiveDaysRatio:          round4(activeDaysRatio),
		LongestInactivityGapDays: maxGap,
		RecentActivityDays:       daysSince,
	}
}

// ExtractFinancial derives balance and volatility features.
func (e *Extractor) ExtractFinancial(txs []models.TransactionRecord, snapshots []models.BalanceSnapshot, wallet models.WalletMetadata) models.FinancialFeatures {
	totalValue := 0.0
	for _, tx := range txs {
		totalValue += tx.ValueNative
	}
	avgValue := 0.0
	if len(txs) > 0 {
		avgValue = totalValue / float64(len(txs))
	}

	var balances []float64
	for _, s := range snapshots {
		balances = append(balances, s.BalanceNative)
	}

	maxBalance := wallet.CurrentBalanceNative
	minBalance := wallet.CurrentBalanceNative
	volatility := 0.0
	suddenDrops := 0

	if len(balances) > 0 {
		maxBalance, minBalance = balances[0], balances[0]
		for _, b := range balances {
			if b > maxBalance {
				maxBalance = b
			}
			if b < minBalance {
				minBalance = b
			}
		}
		if len(balances) > 1 {
			volatility = stdev(balances)
		}
		for i := 1; i < len(balances); i++ {
			if balances[i-1] > 0 {
				dropRatio := (balances[i-1] - balances[i]) / balances[i-1]
				if dropRatio > 0.5 {
					suddenDrops++
				}
			}
		}
	}

	return models.FinancialFeatures{
		TotalValueTransferredNative:   round6(totalValue),
		AverageTransactionValueNative: round6(avgValue),
		CurrentBalanceNative:          round6(wallet.CurrentBalanceNative),
		MaxBalanceNative:              round6(maxBalance),
		MinBalanceNative:              round6(minBalance),
		BalanceVolatility:             round6(volatility),
		SuddenDropsCount:              suddenDrops,
	}
}

// ExtractProtocol derives DeFi protocol-interaction features.
func (e *Extractor) ExtractProtocol(events []models.ProtocolEvent) models.ProtocolInteractionFeatures {
	var borrows, repays, deposits, withdraws, liquidations []models.ProtocolEvent
	for _, ev := range events {
		switch ev.Type {
		case models.EventBorrow:
			borrows = append(borrows, ev)
		case models.EventRepay:
			repays = append(repays, ev)
		case models.EventDeposit, models.EventSupply:
			deposits = append(deposits, ev)
		case models.EventWithdraw:
			withdraws = append(withdraws, ev)
		case models.EventLiquidation:
			liquidations = append(liquidations, ev)
		}
	}

	repayRatio := 0.0
	if len(borrows) > 0 {
		repayRatio = float64(len(repays)) / float64(len(borrows))
	}

	return models.ProtocolInteractionFeatures{
		TotalProtocolEvents:       len(events),
		BorrowCount:               len(borrows),
		RepayCount:                len(repays),
		DepositCount:              len(deposits),
		WithdrawCount:             len(withdraws),
		LiquidationCount:          len(liquidations),
		RepayToBorrowRatio:        round4(repayRatio),
		AverageBorrowDurationDays: round2(averageBorrowDuration(borrows, repays)),
	}
}

// averageBorrowDuration pairs each borrow with the first later repay from
// the same protocol (and, when both specify one, the same asset), returning
// the mean duration in days across matched pairs. Falls back to the span
// between the first borrow and last repay divided by the borrow count when
// nothing matches.
func averageBorrowDuration(borrows, repays []models.ProtocolEvent) float64 {
	if len(borrows) == 0 || len(repays) == 0 {
		return 0
	}

	sortedBorrows := append([]models.ProtocolEvent(nil), borrows...)
	sort.Slice(sortedBorrows, func(i, j int) bool { return sortedBorrows[i].Timestamp.Before(sortedBorrows[j].Timestamp) })
	sortedRepays := append([]models.ProtocolEvent(nil), repays...)
	sort.Slice(sortedRepays, func(i, j int) bool { return sortedRepays[i].Timestamp.Before(sortedRepays[j].Timestamp) })

	var durations []float64
	for _, borrow := range sortedBorrows {
		var matched *models.ProtocolEvent
		for i := range sortedRepays {
			repay := sortedRepays[i]
			if !repay.Timestamp.After(borrow.Timestamp) || repay.ProtocolName != borrow.ProtocolName {
				continue
			}
			if borrow.Asset != nil && repay.Asset != nil {
				if *borrow.Asset != *repay.Asset {
					continue
				}
			}
			matched = &sortedRepays[i]
			break
		}
		if matched != nil {
			days := matched.Timestamp.Sub(borrow.Timestamp).Hours() / 24
			if days >= 0 {
				durations = append(durations, days)
			}
		}
	}

	if len(durations) > 0 {
		return mean(durations)
	}

	firstBorrow := sortedBorrows[0].Timestamp
	lastRepay := sortedRepays[len(sortedRepays)-1].Timestamp
	span := lastRepay.Sub(firstBorrow).Hours() / 24
	avg := span / float64(len(sortedBorrows))
	if avg < 0 {
		avg = 0
	}
	return avg
}

// ExtractRisk derives failed-transaction, liquidation and zero-balance risk
// signals.
func (e *Extractor) ExtractRisk(txs []models.TransactionRecord, events []models.ProtocolEvent, snapshots []models.BalanceSnapshot) models.RiskFeatures {
	failedCount := 0
	for _, tx := range txs {
		if !tx.Success {
			failedCount++
		}
	}
	failedRatio := 0.0
	if len(txs) > 0 {
		failedRatio = float64(failedCount) / float64(len(txs))
	}

	liquidationCount := 0
	for _, ev := range events {
		if ev.Type == models.EventLiquidation {
			liquidationCount++
		}
	}

	zeroBalanceCount := 0
	for _, s := range snapshots {
		if s.BalanceNative == 0 {
			zeroBalanceCount++
		}
	}

	return models.RiskFeatures{
		FailedTransactionCount: failedCount,
		FailedTransactionRatio: round4(failedRatio),
		LiquidationCount:       liquidationCount,
		HighGasSpikeCount:      detectGasSpikes(txs),
		ZeroBalancePeriods:     zeroBalanceCount,
	}
}

// detectGasSpikes flags transactions whose gas price is an outlier against
// the wallet's own history: more than 3x the median and more than 2x the
// 95th percentile, and above a 100 Gwei floor. Failed high-gas transactions
// count double. The whole signal is suppressed below a 10-transaction
// sample and below a 5% spike rate, since sparse data produces noise, not
// signal.
func detectGasSpikes(txs []models.TransactionRecord) int {
	type gasTx struct {
		gwei    float64
		success bool
	}
	var sample []gasTx
	for _, tx := range txs {
		if tx.GasUsed == nil || tx.GasPriceWei == nil || tx.GasPriceWei.Sign() <= 0 {
			continue
		}
		gweiF, _ := new(big.Float).SetInt(tx.GasPriceWei).Float64()
		sample = append(sample, gasTx{gwei: gweiF / 1e9, success: tx.Success})
	}

	if len(sample) < 10 {
		return 0
	}

	prices := make([]float64, len(sample))
	for i, s := range sample {
		prices[i] = s.gwei
	}

	medianGas := median(prices)

	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	p95Index := int(float64(len(sorted)) * 0.95)
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}
	p95Gas := sorted[p95Index]

	spikeThreshold := math.Max(medianGas*3.0, p95Gas*2.0)
	const minAbsoluteThreshold = 100.0

	spikeCount := 0
	for _, s := range sample {
		if s.gwei > spikeThreshold && s.gwei > minAbsoluteThreshold {
			if !s.success {
				spikeCount += 2
			} else {
				spikeCount++
			}
		}
	}

	spikeRate := float64(spikeCount) / float64(len(sample))
	if spikeRate < 0.05 {
		return 0
	}
	return spikeCount
}

// ExtractTemporal derives wallet age and regularity features.
func (e *Extractor) ExtractTemporal(txs []models.TransactionRecord, wallet models.WalletMetadata, window models.AnalysisWindow) models.TemporalFeatures {
	walletAge := int(window.End.Sub(wallet.FirstSeenTimestamp).Hours() / 24)

	daysSince := walletAge
	var txTimes []time.Time
	for _, tx := range txs {
		if !tx.Timestamp.IsZero() {
			txTimes = append(txTimes, tx.Timestamp)
		}
	}
	if len(txTimes) > 0 {
		last := txTimes[0]
		for _, t := range txTimes {
			if t.After(last) {
				last = t
			}
		}
		daysSince = int(window.End.Sub(last).Hours() / 24)
	}

	regularityScore := 0.0
	if len(txs) > 2 {
		sorted := append([]time.Time(nil), txTimes...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
		if len(sorted) > 1 {
			intervals := make([]float64, 0, len(sorted)-1)
			for i := 1; i < len(sorted); i++ {
				intervals = append(intervals, sorted[i].Sub(sorted[i-1]).Seconds())
			}
			meanInterval := mean(intervals)
			if meanInterval > 0 && len(intervals) > 1 {
				cv := stdev(intervals) / meanInterval
				regularityScore = 1.0 / (1.0 + cv)
			}
		}
	}

	burstRatio := 0.0
	if len(txs) > 0 {
		dailyCounts := map[string]int{}
		for _, tx := range txs {
			if tx.Timestamp.IsZero() {
				continue
			}
			key := tx.Timestamp.UTC().Format("2006-01-02")
			dailyCounts[key]++
		}
		if len(dailyCounts) > 0 {
			counts := make([]int, 0, len(dailyCounts))
			for _, c := range dailyCounts {
				counts = append(counts, c)
			}
			sort.Sort(sort.Reverse(sort.IntSlice(counts)))
			top10 := len(counts) / 10
			if top10 < 1 {
				top10 = 1
			}
			burstTxs := 0
			for _, c := range counts[:top10] {
				burstTxs += c
			}
			burstRatio = float64(burstTxs) / float64(len(txs))
		}
	}

	return models.TemporalFeatures{
		WalletAgeDays:              walletAge,
		TransactionRegularityScore: round4(regularityScore),
		BurstActivityRatio:         round4(burstRatio),
		DaysSinceLastActivity:      daysSince,
	}
}

// Extract builds the complete FeatureVector for one wallet on one network.
// It is the main entry point every caller uses.
func (e *Extractor) Extract(record models.FeatureRecord, network string, chainID uint64, windowDays *int, now time.Time) models.FeatureVector {
	window := record.Window
	if window.Start.IsZero() && window.End.IsZero() {
		name := "lifetime"
		if windowDays != nil {
			name = "windowed"
		}
		window = e.Window(name, windowDays, now)
	}

	activity := e.ExtractActivity(record.Transactions, window, record.Wallet)
	financial := e.ExtractFinancial(record.Transactions, record.Snapshots, record.Wallet)
	protocol := e.ExtractProtocol(record.Events)
	risk := e.ExtractRisk(record.Transactions, record.Events, record.Snapshots)
	temporal := e.ExtractTemporal(record.Transactions, record.Wallet, window)
	classification := ClassifyBehavior(activity, financial, protocol, risk, temporal)

	return models.FeatureVector{
		Wallet:         record.Wallet.Address,
		Network:        network,
		ChainID:        chainID,
		Window:         window,
		Activity:       activity,
		Financial:      financial,
		Protocol:       protocol,
		Risk:           risk,
		Temporal:       temporal,
		Classification: classification,
		ExtractedAt:    now,
		FeatureVersion: logtable.CurrentFeatureVersion,
	}
}
