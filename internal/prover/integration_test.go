//go:build integration

package prover

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/rawblock/zk-credit-score/internal/logtable"
	"github.com/rawblock/zk-credit-score/internal/scoring"
	"github.com/rawblock/zk-credit-score/internal/witness"
	"github.com/rawblock/zk-credit-score/pkg/models"
)

// TestSnarkjsDriver_RoundTrip drives GenerateProof followed by VerifyProof
// against a real snarkjs binary and a real compiled circuit. It requires
// the circuit artifacts pointed at by ZK_WASM_PATH, ZK_ZKEY_PATH and
// ZK_VKEY_PATH, and a snarkjs binary on PATH; run with
//
//	go test -tags=integration ./internal/prover/...
//
// and those three env vars set. Absent any of them, the test skips rather
// than failing, since most environments running the unit suite will not
// have a compiled circuit on hand.
func TestSnarkjsDriver_RoundTrip(t *testing.T) {
	if _, err := exec.LookPath("snarkjs"); err != nil {
		t.Skip("snarkjs not found on PATH, skipping round-trip test")
	}

	wasmPath := os.Getenv("ZK_WASM_PATH")
	zkeyPath := os.Getenv("ZK_ZKEY_PATH")
	vkeyPath := os.Getenv("ZK_VKEY_PATH")
	if wasmPath == "" || zkeyPath == "" || vkeyPath == "" {
		t.Skip("ZK_WASM_PATH, ZK_ZKEY_PATH and ZK_VKEY_PATH must all be set, skipping round-trip test")
	}
	for _, p := range []string{wasmPath, zkeyPath, vkeyPath} {
		if _, err := os.Stat(p); err != nil {
			t.Skipf("circuit artifact %s not present, skipping round-trip test", p)
		}
	}

	features := models.FeatureVector{
		FeatureVersion: logtable.CurrentFeatureVersion,
		Financial: models.FinancialFeatures{
			CurrentBalanceNative: 5,
			MaxBalanceNative:     10,
		},
		Protocol: models.ProtocolInteractionFeatures{
			BorrowCount: 10,
			RepayCount:  10,
		},
		Activity: models.ActivityFeatures{
			TotalTransactions: 500,
			ActiveDaysRatio:   0.82,
		},
		Temporal: models.TemporalFeatures{
			WalletAgeDays: 730,
		},
	}

	engine := scoring.NewCircuitEngine()
	score := engine.Compute(features, logtable.CurrentEngineVersion)

	formatter := witness.NewFormatter()
	w, err := formatter.Format(features, score, 600, "0x000000000000000000000000000000000000Ab", time.Now())
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}
	if err := witness.Validate(w, time.Now()); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	driver := NewSnarkjsDriver(wasmPath, zkeyPath, vkeyPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	proof, publicSignals, err := driver.GenerateProof(ctx, w)
	if err != nil {
		t.Fatalf("GenerateProof returned error: %v", err)
	}
	if len(publicSignals) == 0 {
		t.Fatal("GenerateProof returned no public signals")
	}

	ok, err := driver.VerifyProof(ctx, proof, publicSignals)
	if err != nil {
		t.Fatalf("VerifyProof returned error: %v", err)
	}
	if !ok {
		t.Fatal("VerifyProof rejected a proof generated for the same witness")
	}
}
