package witness

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/rawblock/zk-credit-score/pkg/models"
)

// ComputeNullifier hashes (userAddress, nonce, timestamp, versionID) into a
// BN254-field element with SHA-256. This value is informational only: the
// circuit recomputes the real nullifier internally with Poseidon, and the
// two are never compared.
func ComputeNullifier(userAddress, nonce *big.Int, timestamp, versionID int64) *big.Int {
	data := fmt.Sprintf("%s%s%d%d", userAddress.String(), nonce.String(), timestamp, versionID)
	digest := sha256.Sum256([]byte(data))

	nullifier := new(big.Int).SetBytes(digest[:])
	return nullifier.Mod(nullifier, models.BN254Prime)
}
