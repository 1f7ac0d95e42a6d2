package witness

import (
	"time"

	"github.com/rawblock/zk-credit-score/internal/coreerrors"
	"github.com/rawblock/zk-credit-score/internal/logtable"
	"github.com/rawblock/zk-credit-score/pkg/models"
)

// Validate checks the structural invariants a Witness must satisfy before
// it is handed to the prover: score and threshold within the scaled score
// range, timestamp not more than five minutes in the future, and the
// version ID the circuit was compiled against.
func Validate(w models.Witness, now time.Time) error {
	if w.Public.ScoreTotal < logtable.MinScoreScaled || w.Public.ScoreTotal > logtable.MaxScoreScaled {
		return &coreerrors.InvalidInput{Reason: "scoreTotal outside [0, 900000]"}
	}
	if w.Public.Threshold < logtable.MinScoreScaled || w.Public.Threshold > logtable.MaxScoreScaled {
		return &coreerrors.InvalidInput{Reason: "threshold outside [0, 900000]"}
	}

	const futureTolerance = 300 // seconds
	if w.Public.Timestamp > now.Unix()+futureTolerance {
		return &coreerrors.InvalidInput{Reason: "timestamp is in the future"}
	}

	if int64(w.VersionID) != models.VersionID {
		return &coreerrors.InvalidInput{Reason: "unexpected versionId"}
	}

	if w.Public.Nullifier == nil || w.Public.Nullifier.Sign() < 0 || w.Public.Nullifier.Cmp(models.BN254Prime) >= 0 {
		return &coreerrors.OutOfRange{Field: "nullifier", Value: w.Public.Nullifier.String()}
	}

	return nil
}
