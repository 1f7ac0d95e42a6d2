package prover

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rawblock/zk-credit-score/internal/coreerrors"
	"github.com/rawblock/zk-credit-score/pkg/models"
)

// Default per-step timeouts. ProveTimeout bounds `wtns calculate` and
// `groth16 prove` each on its own; VerifyTimeout bounds `groth16 verify`.
const (
	DefaultProveTimeout  = 120 * time.Second
	DefaultVerifyTimeout = 30 * time.Second
)

// SnarkjsDriver invokes the snarkjs CLI to turn a witness into a Groth16
// proof, and to independently verify one. It drives the subprocess through
// `os/exec` directly, since no library in the example pack wraps external
// process orchestration; its one third-party import is github.com/google/uuid,
// used for temp-directory names.
type SnarkjsDriver struct {
	// BinaryPath is the snarkjs executable, resolved via PATH if relative.
	BinaryPath string
	WasmPath   string
	ZkeyPath   string
	VkeyPath   string

	ProveTimeout  time.Duration
	VerifyTimeout time.Duration
}

// NewSnarkjsDriver returns a driver pointed at the given circuit artifacts.
// wasmPath, zkeyPath and vkeyPath must exist before GenerateProof or
// VerifyProof is called. They are checked lazily, at call time, since a
// short-lived CLI process may deploy artifacts after the driver is
// constructed.
func NewSnarkjsDriver(wasmPath, zkeyPath, vkeyPath string) *SnarkjsDriver {
	return &SnarkjsDriver{
		BinaryPath:    "snarkjs",
		WasmPath:      wasmPath,
		ZkeyPath:      zkeyPath,
		VkeyPath:      vkeyPath,
		ProveTimeout:  DefaultProveTimeout,
		VerifyTimeout: DefaultVerifyTimeout,
	}
}

func (d *SnarkjsDriver) checkArtifacts() error {
	for _, p := range []string{d.WasmPath, d.ZkeyPath, d.VkeyPath} {
		if _, err := os.Stat(p); err != nil {
			return &coreerrors.ExternalToolMissing{Tool: "snarkjs circuit artifact", Path: p}
		}
	}
	return nil
}

// GenerateProof runs `snarkjs wtns calculate` followed by
// `snarkjs groth16 prove` inside a fresh, uuid-named temp directory that is
// removed on every return path, including ctx cancellation.
func (d *SnarkjsDriver) GenerateProof(ctx context.Context, witness models.Witness) (Proof, []*big.Int, error) {
	if err := d.checkArtifacts(); err != nil {
		return Proof{}, nil, err
	}

	tempDir, err := os.MkdirTemp("", "zk-credit-score-prove-"+uuid.New().String())
	if err != nil {
		return Proof{}, nil, fmt.Errorf("prover: create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	inputFile := filepath.Join(tempDir, "input.json")
	witnessFile := filepath.Join(tempDir, "witness.wtns")
	proofFile := filepath.Join(tempDir, "proof.json")
	publicFile := filepath.Join(tempDir, "public.json")

	input := buildCircuitInput(witness)
	inputBytes, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return Proof{}, nil, fmt.Errorf("prover: marshal circuit input: %w", err)
	}
	if err := os.WriteFile(inputFile, inputBytes, 0o600); err != nil {
		return Proof{}, nil, fmt.Errorf("prover: write circuit input: %w", err)
	}

	wtnsCtx, cancelWtns := context.WithTimeout(ctx, d.ProveTimeout)
	defer cancelWtns()
	if err := d.run(wtnsCtx, "wtns-calculate", d.WasmPath, inputFile, witnessFile); err != nil {
		return Proof{}, nil, err
	}

	proveCtx, cancel := context.WithTimeout(ctx, d.ProveTimeout)
	defer cancel()
	if err := d.run(proveCtx, "groth16-prove", d.ZkeyPath, witnessFile, proofFile, publicFile); err != nil {
		return Proof{}, nil, err
	}

	proof, err := readProof(proofFile)
	if err != nil {
		return Proof{}, nil, err
	}
	publicSignals, err := readPublicSignals(publicFile)
	if err != nil {
		return Proof{}, nil, err
	}

	return proof, publicSignals, nil
}

// VerifyProof runs `snarkjs groth16 verify` against the verification key,
// inside its own uuid-named temp directory.
func (d *SnarkjsDriver) VerifyProof(ctx context.Context, proof Proof, publicSignals []*big.Int) (bool, error) {
	if _, err := os.Stat(d.VkeyPath); err != nil {
		return false, &coreerrors.ExternalToolMissing{Tool: "snarkjs verification key", Path: d.VkeyPath}
	}

	tempDir, err := os.MkdirTemp("", "zk-credit-score-verify-"+uuid.New().String())
	if err != nil {
		return false, fmt.Errorf("prover: create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	proofFile := filepath.Join(tempDir, "proof.json")
	publicFile := filepath.Join(tempDir, "public.json")

	if err := writeProof(proofFile, proof); err != nil {
		return false, err
	}
	if err := writePublicSignals(publicFile, publicSignals); err != nil {
		return false, err
	}

	verifyCtx, cancel := context.WithTimeout(ctx, d.VerifyTimeout)
	defer cancel()

	cmd := exec.CommandContext(verifyCtx, d.BinaryPath, "groth16", "verify", d.VkeyPath, publicFile, proofFile)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return false, &coreerrors.ExternalToolMissing{Tool: d.BinaryPath, Path: d.BinaryPath}
		}
		if verifyCtx.Err() != nil {
			return false, &coreerrors.ExternalToolTimeout{Step: "groth16 verify"}
		}
		return false, &coreerrors.ExternalToolFailed{Step: "groth16 verify", Stderr: stderr.String(), Cause: err}
	}

	return strings.Contains(stdout.String(), "OK"), nil
}

// run executes one snarkjs subcommand, translating exec errors into typed
// coreerrors. A binary absent from PATH is reported as ExternalToolMissing
// rather than ExternalToolFailed, since the failure has nothing to do with
// snarkjs's own exit behavior.
func (d *SnarkjsDriver) run(ctx context.Context, step string, args ...string) error {
	cmdArgs := append(snarkjsArgs(step), args...)
	cmd := exec.CommandContext(ctx, d.BinaryPath, cmdArgs...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return &coreerrors.ExternalToolMissing{Tool: d.BinaryPath, Path: d.BinaryPath}
		}
		if ctx.Err() != nil {
			return &coreerrors.ExternalToolTimeout{Step: step}
		}
		return &coreerrors.ExternalToolFailed{Step: step, Stderr: stderr.String(), Cause: err}
	}
	return nil
}

func snarkjsArgs(step string) []string {
	switch step {
	case "wtns-calculate":
		return []string{"wtns", "calculate"}
	case "groth16-prove":
		return []string{"groth16", "prove"}
	default:
		return []string{step}
	}
}

// buildCircuitInput flattens public and private inputs into the single
// field-name -> decimal-string map snarkjs expects on disk. Values are
// strings rather than JSON numbers because field elements (userAddress,
// nullifier) exceed float64 and int64 precision.
func buildCircuitInput(w models.Witness) map[string]string {
	p := w.Public
	pr := w.Private

	return map[string]string{
		"userAddress":    p.UserAddress.String(),
		"scoreTotal":     strconv.FormatInt(p.ScoreTotal, 10),
		"scoreRepayment": strconv.FormatInt(p.ScoreRepayment, 10),
		"scoreCapital":   strconv.FormatInt(p.ScoreCapital, 10),
		"scoreLongevity": strconv.FormatInt(p.ScoreLongevity, 10),
		"scoreActivity":  strconv.FormatInt(p.ScoreActivity, 10),
		"scoreProtocol":  strconv.FormatInt(p.ScoreProtocol, 10),
		"threshold":      strconv.FormatInt(p.Threshold, 10),
		"timestamp":      strconv.FormatInt(p.Timestamp, 10),
		"nullifier":      p.Nullifier.String(),
		"versionId":      strconv.FormatInt(p.VersionID, 10),

		"currentBalanceScaled":    strconv.FormatInt(pr.CurrentBalanceScaled, 10),
		"maxBalanceScaled":        strconv.FormatInt(pr.MaxBalanceScaled, 10),
		"balanceVolatilityScaled": strconv.FormatInt(pr.BalanceVolatilityScaled, 10),
		"suddenDropsCount":        strconv.FormatInt(pr.SuddenDropsCount, 10),
		"totalValueTransferred":   strconv.FormatInt(pr.TotalValueTransferred, 10),
		"avgTxValue":              strconv.FormatInt(pr.AvgTxValue, 10),
		"minBalanceScaled":        strconv.FormatInt(pr.MinBalanceScaled, 10),

		"borrowCount":         strconv.FormatInt(pr.BorrowCount, 10),
		"repayCount":          strconv.FormatInt(pr.RepayCount, 10),
		"repayToBorrowRatio":  strconv.FormatInt(pr.RepayToBorrowRatio, 10),
		"liquidationCount":    strconv.FormatInt(pr.LiquidationCount, 10),
		"totalProtocolEvents": strconv.FormatInt(pr.TotalProtocolEvents, 10),
		"depositCount":        strconv.FormatInt(pr.DepositCount, 10),
		"withdrawCount":       strconv.FormatInt(pr.WithdrawCount, 10),
		"avgBorrowDuration":   strconv.FormatInt(pr.AvgBorrowDuration, 10),

		"totalTransactions":    strconv.FormatInt(pr.TotalTransactions, 10),
		"activeDays":           strconv.FormatInt(pr.ActiveDays, 10),
		"totalDays":            strconv.FormatInt(pr.TotalDays, 10),
		"activeDaysRatio":      strconv.FormatInt(pr.ActiveDaysRatio, 10),
		"longestInactivityGap": strconv.FormatInt(pr.LongestInactivityGap, 10),
		"transactionsPerDay":   strconv.FormatInt(pr.TransactionsPerDay, 10),

		"walletAgeDays":         strconv.FormatInt(pr.WalletAgeDays, 10),
		"transactionRegularity": strconv.FormatInt(pr.TransactionRegularity, 10),
		"burstActivityRatio":    strconv.FormatInt(pr.BurstActivityRatio, 10),
		"daysSinceLastActivity": strconv.FormatInt(pr.DaysSinceLastActivity, 10),

		"failedTxCount":      strconv.FormatInt(pr.FailedTxCount, 10),
		"failedTxRatio":      strconv.FormatInt(pr.FailedTxRatio, 10),
		"highGasSpikeCount":  strconv.FormatInt(pr.HighGasSpikeCount, 10),
		"zeroBalancePeriods": strconv.FormatInt(pr.ZeroBalancePeriods, 10),

		"nonce": pr.Nonce.String(),
	}
}

func readProof(path string) (Proof, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Proof{}, fmt.Errorf("prover: read proof file: %w", err)
	}
	var raw snarkjsProofJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return Proof{}, &coreerrors.ExternalToolFailed{Step: "parse proof.json", Cause: err}
	}
	return decodeProof(raw)
}

func decodeProof(raw snarkjsProofJSON) (Proof, error) {
	if len(raw.PiA) < 2 || len(raw.PiB) < 2 || len(raw.PiB[0]) < 2 || len(raw.PiB[1]) < 2 || len(raw.PiC) < 2 {
		return Proof{}, &coreerrors.ExternalToolFailed{Step: "parse proof.json", Stderr: "malformed proof shape"}
	}

	piA, err := parseBigInts(raw.PiA[:2])
	if err != nil {
		return Proof{}, err
	}
	piB0, err := parseBigInts(raw.PiB[0][:2])
	if err != nil {
		return Proof{}, err
	}
	piB1, err := parseBigInts(raw.PiB[1][:2])
	if err != nil {
		return Proof{}, err
	}
	piC, err := parseBigInts(raw.PiC[:2])
	if err != nil {
		return Proof{}, err
	}

	protocol := raw.Protocol
	if protocol == "" {
		protocol = "groth16"
	}
	curve := raw.Curve
	if curve == "" {
		curve = "bn128"
	}

	return Proof{
		PiA:      [2]*big.Int{piA[0], piA[1]},
		PiB:      [2][2]*big.Int{{piB0[0], piB0[1]}, {piB1[0], piB1[1]}},
		PiC:      [2]*big.Int{piC[0], piC[1]},
		Protocol: protocol,
		Curve:    curve,
	}, nil
}

func writeProof(path string, proof Proof) error {
	raw := snarkjsProofJSON{
		PiA:      []string{proof.PiA[0].String(), proof.PiA[1].String()},
		PiB:      [][]string{{proof.PiB[0][0].String(), proof.PiB[0][1].String()}, {proof.PiB[1][0].String(), proof.PiB[1][1].String()}},
		PiC:      []string{proof.PiC[0].String(), proof.PiC[1].String()},
		Protocol: proof.Protocol,
		Curve:    proof.Curve,
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("prover: marshal proof: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func readPublicSignals(path string) ([]*big.Int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prover: read public signals: %w", err)
	}
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &coreerrors.ExternalToolFailed{Step: "parse public.json", Cause: err}
	}
	return parseBigInts(raw)
}

func writePublicSignals(path string, signals []*big.Int) error {
	raw := make([]string, len(signals))
	for i, s := range signals {
		raw[i] = s.String()
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("prover: marshal public signals: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func parseBigInts(values []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		n, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return nil, &coreerrors.ExternalToolFailed{Step: "parse field element", Stderr: "not a decimal integer: " + v}
		}
		out[i] = n
	}
	return out, nil
}
