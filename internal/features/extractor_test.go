package features

import (
	"math/big"
	"testing"
	"time"

	"github.com/rawblock/zk-credit-score/pkg/models"
)

func addr(b byte) models.Address {
	var a models.Address
	a[19] = b
	return a
}

func TestExtractActivity_EmptyWallet(t *testing.T) {
	e := NewExtractor()
	wallet := models.WalletMetadata{TransactionCount: 5}
	window := models.AnalysisWindow{Start: models.GenesisTimestamp, End: time.Now()}

	got := e.ExtractActivity(nil, window, wallet)
	if got.TotalTransactions != 5 {
		t.Errorf("TotalTransactions = %d, want 5 (falls back to wallet metadata)", got.TotalTransactions)
	}
	if got.ActiveDaysRatio != 0 {
		t.Errorf("ActiveDaysRatio = %v, want 0", got.ActiveDaysRatio)
	}
}

func TestExtractActivity_ComputesGapsAndRatio(t *testing.T) {
	e := NewExtractor()
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -10)
	window := models.AnalysisWindow{Start: start, End: end}

	txs := []models.TransactionRecord{
		{Timestamp: start.AddDate(0, 0, 1)},
		{Timestamp: start.AddDate(0, 0, 1)}, // same day, doesn't add an active day
		{Timestamp: start.AddDate(0, 0, 8)},
	}

	got := e.ExtractActivity(txs, window, models.WalletMetadata{})
	if got.ActiveDays != 2 {
		t.Errorf("ActiveDays = %d, want 2", got.ActiveDays)
	}
	if got.LongestInactivityGapDays != 7 {
		t.Errorf("LongestInactivityGapDays = %d, want 7", got.LongestInactivityGapDays)
	}
	if got.TotalTransactions != 3 {
		t.Errorf("TotalTransactions = %d, want 3", got.TotalTransactions)
	}
}

func TestExtractFinancial_DetectsSuddenDrops(t *testing.T) {
	e := NewExtractor()
	wallet := models.WalletMetadata{CurrentBalanceNative: 1.0}
	snapshots := []models.BalanceSnapshot{
		{BalanceNative: 10.0},
		{BalanceNative: 9.5},
		{BalanceNative: 2.0}, // > 50% drop from 9.5
	}

	got := e.ExtractFinancial(nil, snapshots, wallet)
	if got.SuddenDropsCount != 1 {
		t.Errorf("SuddenDropsCount = %d, want 1", got.SuddenDropsCount)
	}
	if got.MaxBalanceNative != 10.0 {
		t.Errorf("MaxBalanceNative = %v, want 10.0", got.MaxBalanceNative)
	}
	if got.MinBalanceNative != 2.0 {
		t.Errorf("MinBalanceNative = %v, want 2.0", got.MinBalanceNative)
	}
}

func TestExtractProtocol_RepayRatioAndDuration(t *testing.T) {
	e := NewExtractor()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	events := []models.ProtocolEvent{
		{Type: models.EventBorrow, ProtocolName: "aave", Timestamp: base},
		{Type: models.EventRepay, ProtocolName: "aave", Timestamp: base.AddDate(0, 0, 30)},
		{Type: models.EventBorrow, ProtocolName: "aave", Timestamp: base.AddDate(0, 0, 60)},
		{Type: models.EventRepay, ProtocolName: "aave", Timestamp: base.AddDate(0, 0, 70)},
		{Type: models.EventLiquidation, ProtocolName: "aave", Timestamp: base.AddDate(0, 0, 80)},
	}

	got := e.ExtractProtocol(events)
	if got.BorrowCount != 2 || got.RepayCount != 2 {
		t.Fatalf("BorrowCount=%d RepayCount=%d, want 2/2", got.BorrowCount, got.RepayCount)
	}
	if got.RepayToBorrowRatio != 1.0 {
		t.Errorf("RepayToBorrowRatio = %v, want 1.0", got.RepayToBorrowRatio)
	}
	// matched durations: 30 days and 10 days -> average 20
	if got.AverageBorrowDurationDays != 20.0 {
		t.Errorf("AverageBorrowDurationDays = %v, want 20.0", got.AverageBorrowDurationDays)
	}
	if got.LiquidationCount != 1 {
		t.Errorf("LiquidationCount = %d, want 1", got.LiquidationCount)
	}
}

func TestExtractProtocol_NoBorrows_ZeroRatio(t *testing.T) {
	e := NewExtractor()
	got := e.ExtractProtocol(nil)
	if got.RepayToBorrowRatio != 0 {
		t.Errorf("RepayToBorrowRatio = %v, want 0", got.RepayToBorrowRatio)
	}
	if got.AverageBorrowDurationDays != 0 {
		t.Errorf("AverageBorrowDurationDays = %v, want 0", got.AverageBorrowDurationDays)
	}
}

func TestDetectGasSpikes_BelowSampleFloor(t *testing.T) {
	txs := make([]models.TransactionRecord, 5)
	for i := range txs {
		gasUsed := uint64(21000)
		txs[i] = models.TransactionRecord{
			GasUsed:     &gasUsed,
			GasPriceWei: big.NewInt(50_000_000_000),
			Success:     true,
		}
	}
	if got := detectGasSpikes(txs); got != 0 {
		t.Errorf("detectGasSpikes with 5 samples = %d, want 0 (below 10-sample floor)", got)
	}
}

func TestDetectGasSpikes_FlagsOutliers(t *testing.T) {
	gasUsed := uint64(21000)
	var txs []models.TransactionRecord
	// 40 baseline transactions keep the 95th percentile inside the
	// baseline cluster, so the outliers below don't inflate their own
	// comparison threshold.
	for i := 0; i < 40; i++ {
		txs = append(txs, models.TransactionRecord{
			GasUsed:     &gasUsed,
			GasPriceWei: big.NewInt(20_000_000_000), // 20 Gwei baseline
			Success:     true,
		})
	}
	// two failed spikes well above 3x median (60 Gwei) and the 100 Gwei floor
	for i := 0; i < 2; i++ {
		txs = append(txs, models.TransactionRecord{
			GasUsed:     &gasUsed,
			GasPriceWei: big.NewInt(300_000_000_000), // 300 Gwei
			Success:     false,
		})
	}

	got := detectGasSpikes(txs)
	if got != 4 {
		t.Errorf("detectGasSpikes = %d, want 4 (2 failed spikes at double weight)", got)
	}
}

func TestClassifyBehavior_DormantNewNoHistory(t *testing.T) {
	classification := ClassifyBehavior(
		models.ActivityFeatures{},
		models.FinancialFeatures{},
		models.ProtocolInteractionFeatures{},
		models.RiskFeatures{},
		models.TemporalFeatures{WalletAgeDays: 5},
	)
	if classification.Longevity != models.LongevityNew {
		t.Errorf("Longevity = %s, want new", classification.Longevity)
	}
	if classification.Activity != models.ActivityDormant {
		t.Errorf("Activity = %s, want dormant", classification.Activity)
	}
	if classification.CreditBehavior != models.CreditNoHistory {
		t.Errorf("CreditBehavior = %s, want no_history", classification.CreditBehavior)
	}
	if classification.Risk != models.RiskLow {
		t.Errorf("Risk = %s, want low", classification.Risk)
	}
}

func TestClassifyBehavior_DefaulterOnAnyLiquidation(t *testing.T) {
	classification := ClassifyBehavior(
		models.ActivityFeatures{},
		models.FinancialFeatures{},
		models.ProtocolInteractionFeatures{TotalProtocolEvents: 10, BorrowCount: 5, LiquidationCount: 1},
		models.RiskFeatures{},
		models.TemporalFeatures{},
	)
	if classification.CreditBehavior != models.CreditDefaulter {
		t.Errorf("CreditBehavior = %s, want defaulter", classification.CreditBehavior)
	}
	if classification.Risk != models.RiskHigh {
		t.Errorf("Risk = %s, want high (liquidation score 3)", classification.Risk)
	}
}

func TestExtract_ProducesFeatureVersion(t *testing.T) {
	e := NewExtractor()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	record := models.FeatureRecord{
		Wallet: models.WalletMetadata{
			Address:              addr(1),
			FirstSeenTimestamp:   now.AddDate(-1, 0, 0),
			CurrentBalanceNative: 2.5,
		},
	}

	got := e.Extract(record, "ethereum", 1, nil, now)
	if got.FeatureVersion == "" {
		t.Error("FeatureVersion is empty, want current feature version")
	}
	if got.Network != "ethereum" {
		t.Errorf("Network = %s, want ethereum", got.Network)
	}
	if got.ChainID != 1 {
		t.Errorf("ChainID = %d, want 1", got.ChainID)
	}
}
