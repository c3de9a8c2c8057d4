package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Latif-jpg/site-aviprod-sub002/internal/domain/models"
	"github.com/Latif-jpg/site-aviprod-sub002/internal/service/advisor"
	"github.com/Latif-jpg/site-aviprod-sub002/internal/service/alerts"
	"github.com/Latif-jpg/site-aviprod-sub002/internal/service/forecast"
	"github.com/Latif-jpg/site-aviprod-sub002/internal/service/ledger"
)

// HistoryStore reads trailing audit rows for the advisor.
type HistoryStore interface {
	ConsumptionEntriesSince(ctx context.Context, farmID, sinceDay string) ([]models.ConsumptionLogEntry, error)
}

// advisorWindowDays is how much history feeds the suggestion heuristics.
const advisorWindowDays = 14

// StockHandler serves the engine's read surfaces and the explicit
// ledger-run trigger to the UI collaborator.
type StockHandler struct {
	engine    *forecast.Engine
	evaluator *alerts.Evaluator
	advisor   *advisor.Advisor
	job       *ledger.Job
	history   HistoryStore
	loc       *time.Location
	logger    *zap.Logger
}

// NewStockHandler constructs the HTTP handler adapter.
func NewStockHandler(
	engine *forecast.Engine,
	evaluator *alerts.Evaluator,
	adv *advisor.Advisor,
	job *ledger.Job,
	history HistoryStore,
	loc *time.Location,
	logger *zap.Logger,
) *StockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &StockHandler{
		engine:    engine,
		evaluator: evaluator,
		advisor:   adv,
		job:       job,
		history:   history,
		loc:       loc,
		logger:    logger,
	}
}

// Overview returns the farm's stock projection: per-item status,
// days-remaining and consuming-lot breakdown.
func (h *StockHandler) Overview(c *gin.Context) {
	farmID := c.Param("farmID")

	overview, err := h.engine.Overview(c.Request.Context(), farmID)
	if err != nil {
		h.logger.Error("overview failed", zap.String("farm_id", farmID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stock overview"})
		return
	}

	c.JSON(http.StatusOK, overview)
}

// Alerts returns the evaluated alert picture including the farm-wide
// critical count and the de-duplication signature.
func (h *StockHandler) Alerts(c *gin.Context) {
	farmID := c.Param("farmID")

	overview, err := h.engine.Overview(c.Request.Context(), farmID)
	if err != nil {
		h.logger.Error("overview failed", zap.String("farm_id", farmID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stock overview"})
		return
	}

	c.JSON(http.StatusOK, h.evaluator.Evaluate(c.Request.Context(), overview))
}

// Suggestions returns the ranked optimization suggestions for the farm.
func (h *StockHandler) Suggestions(c *gin.Context) {
	farmID := c.Param("farmID")
	ctx := c.Request.Context()

	overview, err := h.engine.Overview(ctx, farmID)
	if err != nil {
		h.logger.Error("overview failed", zap.String("farm_id", farmID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stock overview"})
		return
	}

	since := models.Day(time.Now().AddDate(0, 0, -advisorWindowDays), h.loc)
	history, err := h.history.ConsumptionEntriesSince(ctx, farmID, since)
	if err != nil {
		// Suggestions still work from the overview alone.
		h.logger.Warn("consumption history lookup failed", zap.String("farm_id", farmID), zap.Error(err))
	}

	suggestions := h.advisor.Advise(overview, history)
	c.JSON(http.StatusOK, gin.H{"farm_id": farmID, "suggestions": suggestions})
}

// RunLedger triggers the daily consumption run for the farm and returns
// the run report. Safe to call repeatedly: committed days are skipped.
func (h *StockHandler) RunLedger(c *gin.Context) {
	farmID := c.Param("farmID")

	report, err := h.job.RunDaily(c.Request.Context(), farmID)
	if err != nil {
		h.logger.Error("ledger run failed", zap.String("farm_id", farmID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger run failed"})
		return
	}

	status := http.StatusOK
	if report.Status == ledger.StatusPartiallyFailed {
		status = http.StatusAccepted
	}
	c.JSON(status, report)
}
