package prover

import (
	"math/big"
	"testing"

	"github.com/rawblock/zk-credit-score/pkg/models"
)

func TestBuildCircuitInput_CoversPublicAndPrivateFields(t *testing.T) {
	w := models.Witness{
		Public: models.PublicInputs{
			UserAddress: big.NewInt(42),
			ScoreTotal:  718260,
			Threshold:   600000,
			Timestamp:   1700000000,
			Nullifier:   big.NewInt(99),
			VersionID:   models.VersionID,
		},
		Private: models.PrivateInputs{
			BorrowCount: 10,
			RepayCount:  10,
			Nonce:       big.NewInt(7),
		},
	}

	input := buildCircuitInput(w)

	for _, key := range []string{
		"userAddress", "scoreTotal", "threshold", "timestamp", "nullifier", "versionId",
		"borrowCount", "repayCount", "nonce",
	} {
		if _, ok := input[key]; !ok {
			t.Errorf("buildCircuitInput missing key %q", key)
		}
	}
	if input["userAddress"] != "42" {
		t.Errorf("userAddress = %q, want %q", input["userAddress"], "42")
	}
	if input["borrowCount"] != "10" {
		t.Errorf("borrowCount = %q, want %q", input["borrowCount"], "10")
	}
	if input["nonce"] != "7" {
		t.Errorf("nonce = %q, want %q", input["nonce"], "7")
	}
}

func TestDecodeProof_RoundTrip(t *testing.T) {
	raw := snarkjsProofJSON{
		PiA: []string{"1", "2", "1"},
		PiB: [][]string{
			{"10", "20"},
			{"30", "40"},
			{"1", "0"},
		},
		PiC:      []string{"3", "4", "1"},
		Protocol: "groth16",
		Curve:    "bn128",
	}

	proof, err := decodeProof(raw)
	if err != nil {
		t.Fatalf("decodeProof returned error: %v", err)
	}

	if proof.PiA[0].Cmp(big.NewInt(1)) != 0 || proof.PiA[1].Cmp(big.NewInt(2)) != 0 {
		t.Errorf("PiA = %v, want [1, 2]", proof.PiA)
	}
	if proof.PiB[0][0].Cmp(big.NewInt(10)) != 0 || proof.PiB[1][1].Cmp(big.NewInt(40)) != 0 {
		t.Errorf("PiB = %v, want [[10,20],[30,40]]", proof.PiB)
	}
	if proof.Protocol != "groth16" || proof.Curve != "bn128" {
		t.Errorf("protocol/curve = %s/%s, want groth16/bn128", proof.Protocol, proof.Curve)
	}
}

func TestDecodeProof_RejectsMalformedShape(t *testing.T) {
	raw := snarkjsProofJSON{
		PiA: []string{"1"},
	}
	if _, err := decodeProof(raw); err == nil {
		t.Fatal("decodeProof should reject a proof missing coordinates")
	}
}

func TestParseBigInts_RejectsNonDecimal(t *testing.T) {
	if _, err := parseBigInts([]string{"0xabc"}); err == nil {
		t.Fatal("parseBigInts should reject a non-decimal string")
	}
	vals, err := parseBigInts([]string{"123", "456"})
	if err != nil {
		t.Fatalf("parseBigInts returned error: %v", err)
	}
	if vals[0].Cmp(big.NewInt(123)) != 0 || vals[1].Cmp(big.NewInt(456)) != 0 {
		t.Errorf("parseBigInts = %v, want [123, 456]", vals)
	}
}
