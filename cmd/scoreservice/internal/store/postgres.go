// Package store persists ScoreResults and Witnesses for cmd/scoreservice.
// It sits outside the core scoring pipeline entirely; none of
// internal/{scoring,features,aggregate,witness,prover} know it exists.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rawblock/zk-credit-score/pkg/models"
)

// ScoreStore persists scoring runs through a pgx connection pool.
type ScoreStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx and
// pings it once so a bad connection string fails fast at startup.
func Connect(connStr string) (*ScoreStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL for Score Service")
	return &ScoreStore{pool: pool}, nil
}

// Close gracefully closes the connection pool.
func (s *ScoreStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema loads and executes the schema.sql file.
func (s *ScoreStore) InitSchema() error {
	schemaBytes, err := os.ReadFile("cmd/scoreservice/internal/store/schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %v", err)
	}

	_, err = s.pool.Exec(context.Background(), string(schemaBytes))
	if err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}

	log.Println("Score service schema initialized")
	return nil
}

// SaveScoringRun persists one wallet/network scoring run: the score and
// witness are stored as JSONB so the schema never needs to track the core's
// internal field layout. The feature vector is not stored.
func (s *ScoreStore) SaveScoringRun(
	ctx context.Context,
	walletAddress, network string,
	score models.ScoreResult,
	w models.Witness,
) error {
	scoreJSON, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("failed to marshal score result: %v", err)
	}
	witnessJSON, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal witness: %v", err)
	}

	sql := `
		INSERT INTO scoring_runs (wallet_address, network, credit_score, score_band, nullifier, score_json, witness_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.pool.Exec(ctx, sql,
		walletAddress, network, score.CreditScore, string(score.ScoreBand),
		w.Public.Nullifier.String(), scoreJSON, witnessJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scoring_runs: %v", err)
	}
	return nil
}

// ScoringRunSummary is one row of a wallet's scoring history.
type ScoringRunSummary struct {
	CreatedAt   string `json:"createdAt"`
	Network     string `json:"network"`
	CreditScore int    `json:"creditScore"`
	ScoreBand   string `json:"scoreBand"`
	Nullifier   string `json:"nullifier"`
}

// GetScoreHistory returns a wallet's past scoring runs, newest first.
func (s *ScoreStore) GetScoreHistory(ctx context.Context, walletAddress string, page, limit int) ([]ScoringRunSummary, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var totalCount int
	countSQL := `SELECT COUNT(*) FROM scoring_runs WHERE wallet_address = $1`
	if err := s.pool.QueryRow(ctx, countSQL, walletAddress).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	dataSQL := `
		SELECT created_at::text, network, credit_score, score_band, nullifier
		FROM scoring_runs
		WHERE wallet_address = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.pool.Query(ctx, dataSQL, walletAddress, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []ScoringRunSummary
	for rows.Next() {
		var r ScoringRunSummary
		if err := rows.Scan(&r.CreatedAt, &r.Network, &r.CreditScore, &r.ScoreBand, &r.Nullifier); err != nil {
			return nil, 0, err
		}
		runs = append(runs, r)
	}
	if runs == nil {
		runs = []ScoringRunSummary{}
	}
	return runs, totalCount, nil
}

// GetPool exposes the connection pool for subsystems that need it directly.
func (s *ScoreStore) GetPool() *pgxpool.Pool {
	return s.pool
}
