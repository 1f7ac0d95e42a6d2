// Command scoreservice is the reference "enclosing application" around the
// core pipeline: HTTP routing, a Postgres store, a WebSocket push feed, and
// Prometheus metrics. It is not part of the core; none of
// internal/{scoring,features,aggregate,witness,prover} import it.
package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rawblock/zk-credit-score/internal/aggregate"

	"github.com/rawblock/zk-credit-score/cmd/scoreservice/internal/httpapi"
	"github.com/rawblock/zk-credit-score/cmd/scoreservice/internal/metrics"
	"github.com/rawblock/zk-credit-score/cmd/scoreservice/internal/store"
	"github.com/rawblock/zk-credit-score/cmd/scoreservice/internal/stream"
)

func main() {
	log.Println("Starting zk-credit-score Score Service...")

	dbURL := os.Getenv("DATABASE_URL")

	var dbStore *store.ScoreStore
	if dbURL != "" {
		conn, err := store.Connect(dbURL)
		if err != nil {
			log.Printf("Warning: Failed to connect to PostgreSQL, continuing without persisting scoring runs. Error: %v", err)
		} else {
			defer conn.Close()
			if err := conn.InitSchema(); err != nil {
				log.Printf("Warning: DB schema init failed: %v", err)
			}
			dbStore = conn
		}
	} else {
		log.Println("DATABASE_URL not set, running without persistence")
	}

	wsHub := stream.NewHub()
	go wsHub.Run()

	// No on-chain ingestion collaborators are wired in this reference build,
	// so the aggregator starts with an empty probe set. /api/v1/score/multi-chain
	// returns an empty active-network list until an owning application
	// registers real ActivityProbes per network.
	aggregator := aggregate.NewAggregator(map[string]aggregate.ActivityProbe{}, nil, aggregate.NewStaticPriceOracle())

	obs := metrics.NewPrometheusHandle("ScoreService")

	r := httpapi.SetupRouter(dbStore, wsHub, aggregator, obs)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	port := getEnvOrDefault("PORT", "8080")
	log.Printf("Score service listening on :%s\n", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
