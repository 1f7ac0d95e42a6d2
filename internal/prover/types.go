// Package prover drives the external Groth16 prover CLI and formats its
// output for on-chain verification.
package prover

import "math/big"

// Proof is a Groth16 proof in snarkjs's own JSON layout: PiA/PiC are
// [x, y] affine points (the third, always-1 coordinate is dropped); PiB is
// [[x1, x2], [y1, y2]], snarkjs's quadratic-extension-field ordering,
// which is NOT the order a Solidity verifier expects (see
// FormatForContract).
type Proof struct {
	PiA      [2]*big.Int
	PiB      [2][2]*big.Int
	PiC      [2]*big.Int
	Protocol string
	Curve    string
}

// ContractProof is a Proof rewritten into the argument layout a generated
// Solidity Groth16 verifier's verifyProof(a, b, c, input) expects.
type ContractProof struct {
	A             [2]*big.Int
	B             [2][2]*big.Int
	C             [2]*big.Int
	PublicSignals []*big.Int
}

// snarkjsProofJSON mirrors the on-disk proof file snarkjs writes/reads
// (the public-signals file is a plain JSON array of strings): hex-free
// decimal strings, since field elements can exceed int64/float64 precision.
type snarkjsProofJSON struct {
	PiA      []string   `json:"pi_a"`
	PiB      [][]string `json:"pi_b"`
	PiC      []string   `json:"pi_c"`
	Protocol string     `json:"protocol"`
	Curve    string     `json:"curve"`
}
