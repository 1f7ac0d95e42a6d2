package prover

import "math/big"

// FormatForContract rewrites a snarkjs Proof into the argument layout a
// generated Solidity Groth16 verifier's verifyProof(a, b, c, input) expects.
//
// snarkjs emits pi_b as [[x1, x2], [y1, y2]] in its own quadratic-
// extension-field ordering, but the Solidity verifiers snarkjs itself
// generates (via the standard Groth16 export template) expect each pair's
// components swapped:
//
//	b = [[pi_b[0][1], pi_b[0][0]], [pi_b[1][1], pi_b[1][0]]]
//
// Getting this wrong produces a proof that is valid off-chain but rejected
// by the on-chain verifier, with no error message pointing at the swap,
// only a failed verifyProof call.
func FormatForContract(proof Proof, publicSignals []*big.Int) ContractProof {
	return ContractProof{
		A: proof.PiA,
		B: [2][2]*big.Int{
			{proof.PiB[0][1], proof.PiB[0][0]},
			{proof.PiB[1][1], proof.PiB[1][0]},
		},
		C:             proof.PiC,
		PublicSignals: publicSignals,
	}
}
