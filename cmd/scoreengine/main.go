// Command scoreengine runs the witness pipeline locally against a JSON
// feature record: read record -> extract features -> score -> format
// witness -> validate -> print. It performs no ingestion and no proving;
// it exists to let the core pipeline be exercised without the reference
// HTTP service.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/rawblock/zk-credit-score/internal/features"
	"github.com/rawblock/zk-credit-score/internal/logtable"
	"github.com/rawblock/zk-credit-score/internal/scoring"
	"github.com/rawblock/zk-credit-score/internal/witness"
	"github.com/rawblock/zk-credit-score/pkg/models"
)

type output struct {
	Features models.FeatureVector `json:"features"`
	Score    models.ScoreResult   `json:"score"`
	Witness  models.Witness       `json:"witness"`
}

func main() {
	log.Println("Starting zk-credit-score Score Engine (pipeline: extract -> score -> witness)...")

	recordPath := recordPathFromArgs()

	network := getEnvOrDefault("NETWORK", "ethereum")
	chainID := mustParseUint64(getEnvOrDefault("CHAIN_ID", "1"))
	threshold := mustParseInt64(getEnvOrDefault("SCORE_THRESHOLD", "600"))
	windowDays := parseWindowDays(getEnvOrDefault("WINDOW_DAYS", "90"))

	data, err := os.ReadFile(recordPath)
	if err != nil {
		log.Fatalf("FATAL: failed to read feature record at %s: %v", recordPath, err)
	}

	var record models.FeatureRecord
	if err := json.Unmarshal(data, &record); err != nil {
		log.Fatalf("FATAL: failed to parse feature record: %v", err)
	}

	now := time.Now().UTC()

	extractor := features.NewExtractor()
	vector := extractor.Extract(record, network, chainID, windowDays, now)
	log.Printf("[ScoreEngine] extracted features: %d transactions, %d protocol events",
		vector.Activity.TotalTransactions, vector.Protocol.TotalProtocolEvents)

	engine := scoring.NewCircuitEngine()
	score := engine.Compute(vector, logtable.CurrentEngineVersion)
	log.Printf("[ScoreEngine] computed score: %d (%s)", score.CreditScore, score.ScoreBand)

	walletAddress := fmt.Sprintf("0x%x", record.Wallet.Address)
	formatter := witness.NewFormatter()
	w, err := formatter.Format(vector, score, threshold, walletAddress, now)
	if err != nil {
		log.Fatalf("FATAL: failed to format witness: %v", err)
	}

	if err := witness.Validate(w, now); err != nil {
		log.Fatalf("FATAL: witness failed validation: %v", err)
	}
	log.Printf("[ScoreEngine] witness validated: nullifier=%s", w.Public.Nullifier)

	result := output{Features: vector, Score: score, Witness: w}
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("FATAL: failed to encode result: %v", err)
	}

	fmt.Println(string(encoded))
}

func recordPathFromArgs() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return requireEnv("FEATURE_RECORD_PATH")
}

func parseWindowDays(raw string) *int {
	if raw == "lifetime" {
		return nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("FATAL: WINDOW_DAYS must be an integer or \"lifetime\", got %q", raw)
	}
	return &days
}

func mustParseUint64(raw string) uint64 {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		log.Fatalf("FATAL: CHAIN_ID must be an unsigned integer, got %q", raw)
	}
	return v
}

func mustParseInt64(raw string) int64 {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Fatalf("FATAL: SCORE_THRESHOLD must be an integer, got %q", raw)
	}
	return v
}

// requireEnv reads a required environment variable and exits if it is not set.
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set.", key)
	}
	return val
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
