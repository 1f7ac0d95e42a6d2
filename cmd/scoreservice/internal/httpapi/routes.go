// Package httpapi is cmd/scoreservice's HTTP surface: the gin router that
// turns requests into calls against the core pipeline. CORS middleware,
// public/protected route groups, and the auth/rate-limit middleware stack
// all sit in front of the scoring endpoints here.
package httpapi

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/zk-credit-score/internal/aggregate"
	"github.com/rawblock/zk-credit-score/internal/features"
	"github.com/rawblock/zk-credit-score/internal/logtable"
	"github.com/rawblock/zk-credit-score/internal/observability"
	"github.com/rawblock/zk-credit-score/internal/scoring"
	"github.com/rawblock/zk-credit-score/internal/witness"
	"github.com/rawblock/zk-credit-score/pkg/models"

	"github.com/rawblock/zk-credit-score/cmd/scoreservice/internal/store"
	"github.com/rawblock/zk-credit-score/cmd/scoreservice/internal/stream"
)

// Handler wires the core pipeline into HTTP handlers.
type Handler struct {
	dbStore    *store.ScoreStore
	wsHub      *stream.Hub
	extractor  *features.Extractor
	engine     *scoring.CircuitEngine
	formatter  *witness.Formatter
	aggregator *aggregate.Aggregator
	obs        observability.Handle
}

// SetupRouter builds the gin.Engine for the score service.
func SetupRouter(dbStore *store.ScoreStore, wsHub *stream.Hub, aggregator *aggregate.Aggregator, obs observability.Handle) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &Handler{
		dbStore:    dbStore,
		wsHub:      wsHub,
		extractor:  features.NewExtractor(),
		engine:     scoring.NewCircuitEngine(),
		formatter:  witness.NewFormatter(),
		aggregator: aggregator,
		obs:        obs,
	}

	pub := r.Group("/api/v1")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/stream", wsHub.Subscribe)
	}

	protected := r.Group("/api/v1")
	protected.Use(AuthMiddleware())
	protected.Use(NewRateLimiter(30, 5).Middleware())
	{
		protected.POST("/score", handler.handleScore)
		protected.POST("/score/multi-chain", handler.handleScoreMultiChain)
		protected.GET("/score/:wallet/history", handler.handleScoreHistory)
	}

	return r
}

type scoreRequest struct {
	WalletAddress string               `json:"walletAddress" binding:"required"`
	Network       string               `json:"network" binding:"required"`
	ChainID       uint64               `json:"chainId"`
	WindowDays    *int                 `json:"windowDays"`
	Threshold     int64                `json:"threshold"`
	Record        models.FeatureRecord `json:"record" binding:"required"`
}

// handleScore runs the single-network pipeline: extract -> score -> format
// witness -> validate -> persist -> broadcast.
func (h *Handler) handleScore(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	now := time.Now().UTC()

	extractStart := time.Now()
	vector := h.extractor.Extract(req.Record, req.Network, req.ChainID, req.WindowDays, now)
	h.obs.ObserveDuration("feature_extraction", time.Since(extractStart).Seconds())

	scoreStart := time.Now()
	score := h.engine.Compute(vector, logtable.CurrentEngineVersion)
	h.obs.ObserveDuration("scoring", time.Since(scoreStart).Seconds())

	threshold := req.Threshold
	if threshold == 0 {
		threshold = 600
	}

	w, err := h.formatter.Format(vector, score, threshold, req.WalletAddress, now)
	if err != nil {
		h.obs.Errorf("failed to format witness for %s: %v", req.WalletAddress, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err := witness.Validate(w, now); err != nil {
		h.obs.Errorf("witness validation failed for %s: %v", req.WalletAddress, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	h.obs.IncCounter("witness_generated")

	if h.dbStore != nil {
		if err := h.dbStore.SaveScoringRun(c.Request.Context(), req.WalletAddress, req.Network, score, w); err != nil {
			h.obs.Warnf("failed to persist scoring run: %v", err)
		}
	}

	if h.wsHub != nil {
		if payload, err := marshalScoreEvent(req.WalletAddress, req.Network, score); err == nil {
			h.wsHub.Broadcast(payload)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"features": vector,
		"score":    score,
		"witness":  w,
	})
}

type multiChainScoreRequest struct {
	WalletAddress string   `json:"walletAddress" binding:"required"`
	Networks      []string `json:"networks" binding:"required"`
	WindowDays    *int     `json:"windowDays"`
}

// handleScoreMultiChain fans out across the requested networks via the
// aggregator and returns the reduced MultiChainFeatureVector. It does not
// score or witness; a caller scores the network it intends to prove
// against, using /score, after inspecting the aggregate view.
func (h *Handler) handleScoreMultiChain(c *gin.Context) {
	if h.aggregator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "multi-chain aggregator not configured"})
		return
	}

	var req multiChainScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.aggregator.Extract(c.Request.Context(), req.WalletAddress, req.Networks, req.WindowDays)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func marshalScoreEvent(walletAddress, network string, score models.ScoreResult) ([]byte, error) {
	return json.Marshal(gin.H{
		"type":          "score_computed",
		"walletAddress": walletAddress,
		"network":       network,
		"score":         score,
	})
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "operational",
		"service":     "zk-credit-score score service",
		"dbConnected": h.dbStore != nil,
	})
}

func (h *Handler) handleScoreHistory(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
		return
	}

	wallet := c.Param("wallet")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	runs, totalCount, err := h.dbStore.GetScoreHistory(c.Request.Context(), wallet, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch score history", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       runs,
		"totalCount": totalCount,
		"page":       page,
		"limit":      limit,
	})
}
