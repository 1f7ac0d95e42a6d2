package witness

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"
)

// GenerateNonce derives a 128-bit anti-replay nonce from a random salt
// folded together with the wallet address and timestamp. 128 bits keeps
// the nonce well clear of the BN254 scalar field while remaining
// collision-resistant for one wallet's lifetime of proofs.
func GenerateNonce(walletAddress string, timestamp int64) (*big.Int, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("witness: generate nonce salt: %w", err)
	}

	data := fmt.Sprintf("%s%d%x", walletAddress, timestamp, salt)
	digest := sha256.Sum256([]byte(data))

	nonce := new(big.Int).SetBytes(digest[:16])
	if nonce.Sign() == 0 {
		nonce = big.NewInt(1)
	}
	return nonce, nil
}
