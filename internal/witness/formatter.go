// Package witness formats a scored feature vector into the public/private
// input layout the Groth16 circuit expects.
package witness

import (
	"math/big"
	"strings"
	"time"

	"github.com/rawblock/zk-credit-score/internal/coreerrors"
	"github.com/rawblock/zk-credit-score/internal/logtable"
	"github.com/rawblock/zk-credit-score/pkg/models"
)

// Formatter turns a FeatureVector plus its circuit-computed ScoreResult into
// a complete Witness. It carries no state; a zero value is usable directly.
type Formatter struct{}

// NewFormatter returns a witness formatter.
func NewFormatter() *Formatter { return &Formatter{} }

// Format builds the witness for one wallet's scoring result. score must
// come from scoring.CircuitEngine; its Components.*Scaled fields are
// copied verbatim into the public inputs so the circuit and the witness
// never disagree on what was scored.
//
// The nonce is rejected (coreerrors.OutOfRange), not reduced, if it happens
// to land at or above BN254Prime. Silently wrapping it would let an
// attacker-influenced wallet address bias the nullifier distribution
// instead of simply retrying with a fresh nonce.
func (f *Formatter) Format(
	features models.FeatureVector,
	score models.ScoreResult,
	threshold int64,
	walletAddress string,
	now time.Time,
) (models.Witness, error) {
	userAddress, ok := parseAddress(walletAddress)
	if !ok {
		return models.Witness{}, &coreerrors.InvalidInput{Reason: "walletAddress is not a valid hex address"}
	}

	featureMajor := strings.SplitN(features.FeatureVersion, ".", 2)[0]
	currentMajor := strings.SplitN(logtable.CurrentFeatureVersion, ".", 2)[0]
	if featureMajor != currentMajor {
		return models.Witness{}, &coreerrors.InvalidInput{
			Reason: "feature version " + features.FeatureVersion + " does not match major version of " + logtable.CurrentFeatureVersion,
		}
	}

	timestamp := now.Unix()

	nonce, err := GenerateNonce(walletAddress, timestamp)
	if err != nil {
		return models.Witness{}, err
	}
	if nonce.Cmp(models.BN254Prime) >= 0 {
		return models.Witness{}, &coreerrors.OutOfRange{Field: "nonce", Value: nonce.String()}
	}

	nullifier := ComputeNullifier(userAddress, nonce, timestamp, models.VersionID)

	public := models.PublicInputs{
		UserAddress:    userAddress,
		ScoreTotal:     score.FinalScoreScaled,
		ScoreRepayment: score.Components.RepaymentBehaviorScaled,
		ScoreCapital:   score.Components.CapitalManagementScaled,
		ScoreLongevity: score.Components.WalletLongevityScaled,
		ScoreActivity:  score.Components.ActivityPatternsScaled,
		ScoreProtocol:  score.Components.ProtocolDiversityScaled,
		Threshold:      threshold * logtable.Scale,
		Timestamp:      timestamp,
		Nullifier:      nullifier,
		VersionID:      models.VersionID,
	}

	private := f.formatPrivateInputs(features, nonce)

	var walletAddr models.Address
	if addrBytes := userAddress.Bytes(); len(addrBytes) <= 20 {
		copy(walletAddr[20-len(addrBytes):], addrBytes)
	}

	return models.Witness{
		VersionID:      models.VersionID,
		Timestamp:      timestamp,
		EngineVersion:  score.EngineVersion,
		FeatureVersion: score.FeatureVersion,
		Wallet:         walletAddr,
		Public:         public,
		Private:        private,
		Metadata: models.WitnessMetadata{
			ScoreBand: score.ScoreBand,
			RawScore:  int64(score.CreditScore),
			Network:   features.Network,
			ChainID:   features.ChainID,
		},
	}, nil
}

// formatPrivateInputs builds the private circuit inputs: balances pass
// through UNSCALED (the circuit's LogScale expects raw token amounts),
// ratios are scaled x1000, counts pass through as-is.
func (f *Formatter) formatPrivateInputs(features models.FeatureVector, nonce *big.Int) models.PrivateInputs {
	return models.PrivateInputs{
		CurrentBalanceScaled:    safeInt(features.Financial.CurrentBalanceNative),
		MaxBalanceScaled:        safeInt(features.Financial.MaxBalanceNative),
		BalanceVolatilityScaled: safeInt(scaleRatio(features.Financial.BalanceVolatility)),
		SuddenDropsCount:        safeInt(float64(features.Financial.SuddenDropsCount)),
		TotalValueTransferred:   safeInt(features.Financial.TotalValueTransferredNative),
		AvgTxValue:              safeInt(features.Financial.AverageTransactionValueNative),
		MinBalanceScaled:        safeInt(features.Financial.MinBalanceNative),

		BorrowCount:         safeInt(float64(features.Protocol.BorrowCount)),
		RepayCount:          safeInt(float64(features.Protocol.RepayCount)),
		RepayToBorrowRatio:  safeInt(scaleRatio(features.Protocol.RepayToBorrowRatio)),
		LiquidationCount:    safeInt(float64(features.Protocol.LiquidationCount)),
		TotalProtocolEvents: safeInt(float64(features.Protocol.TotalProtocolEvents)),
		DepositCount:        safeInt(float64(features.Protocol.DepositCount)),
		WithdrawCount:       safeInt(float64(features.Protocol.WithdrawCount)),
		AvgBorrowDuration:   safeInt(features.Protocol.AverageBorrowDurationDays),

		TotalTransactions:    safeInt(float64(features.Activity.TotalTransactions)),
		ActiveDays:           safeInt(float64(features.Activity.ActiveDays)),
		TotalDays:            safeInt(float64(features.Activity.TotalDays)),
		ActiveDaysRatio:      safeInt(scaleRatio(features.Activity.ActiveDaysRatio)),
		LongestInactivityGap: safeInt(float64(features.Activity.LongestInactivityGapDays)),
		TransactionsPerDay:   safeInt(scaleRatio(features.Activity.TransactionsPerDay)),

		WalletAgeDays:         safeInt(float64(features.Temporal.WalletAgeDays)),
		TransactionRegularity: safeInt(scaleRatio(features.Temporal.TransactionRegularityScore)),
		BurstActivityRatio:    safeInt(scaleRatio(features.Temporal.BurstActivityRatio)),
		DaysSinceLastActivity: safeInt(float64(features.Temporal.DaysSinceLastActivity)),

		FailedTxCount:      safeInt(float64(features.Risk.FailedTransactionCount)),
		FailedTxRatio:      safeInt(scaleRatio(features.Risk.FailedTransactionRatio)),
		HighGasSpikeCount:  safeInt(float64(features.Risk.HighGasSpikeCount)),
		ZeroBalancePeriods: safeInt(float64(features.Risk.ZeroBalancePeriods)),

		Nonce: nonce,
	}
}

func scaleRatio(v float64) float64 { return v * logtable.Scale }

// safeInt truncates to an integer, clamps negatives to 0, and reduces
// modulo BN254Prime. A feature value can never realistically approach the
// field prime, but the reduction is kept to mirror the circuit's own
// field-arithmetic wraparound exactly.
func safeInt(value float64) int64 {
	result := big.NewInt(int64(value))
	if result.Sign() < 0 {
		return 0
	}
	if result.Cmp(models.BN254Prime) >= 0 {
		result.Mod(result, models.BN254Prime)
	}
	return result.Int64()
}

func parseAddress(address string) (*big.Int, bool) {
	hexPart := strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X")
	value, ok := new(big.Int).SetString(hexPart, 16)
	if !ok {
		return nil, false
	}
	return value, true
}
