package api

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"dss/backtest"
	"dss/dataset"
	"dss/report"
	"dss/store"
)

// History is the read side of the run store.
type History interface {
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
	ListDatasets(ctx context.Context) ([]store.DatasetInfo, error)
	ListEvaluations(ctx context.Context, datasetID string) ([]dataset.Evaluation, error)
}

type Handler struct {
	layout  dataset.Layout
	history History
}

func NewHandler(layout dataset.Layout, history History) *Handler {
	return &Handler{layout: layout, history: history}
}

// evaluationView is dataset.Evaluation with undefined metrics as null.
type evaluationView struct {
	StrategyID       string   `json:"strategy_id"`
	StrategyType     string   `json:"strategy_type"`
	RiskScore        *float64 `json:"risk_score"`
	SentimentScore   *float64 `json:"sentiment_score"`
	CumulativeReturn *float64 `json:"cumulative_return"`
	SharpeRatio      *float64 `json:"sharpe_ratio"`
	MaxDrawdown      *float64 `json:"max_drawdown"`
	TTFScore         string   `json:"ttf_score"`
	InfoQuality      *float64 `json:"info_quality"`
	Usability        *float64 `json:"usability"`
	TrustScore       string   `json:"trust_score"`
}

func newEvaluationView(e dataset.Evaluation) evaluationView {
	f := report.Finite
	return evaluationView{
		StrategyID:       e.StrategyID,
		StrategyType:     string(e.StrategyType),
		RiskScore:        f(e.RiskScore),
		SentimentScore:   f(e.SentimentScore),
		CumulativeReturn: f(e.CumulativeReturn),
		SharpeRatio:      f(e.SharpeRatio),
		MaxDrawdown:      f(e.MaxDrawdown),
		TTFScore:         e.TTFScore,
		InfoQuality:      f(e.InfoQuality),
		Usability:        f(e.Usability),
		TrustScore:       e.TrustScore,
	}
}

func evaluationViews(rows []dataset.Evaluation) []evaluationView {
	out := make([]evaluationView, 0, len(rows))
	for _, e := range rows {
		out = append(out, newEvaluationView(e))
	}
	return out
}

type rowView struct {
	Date             string   `json:"date"`
	CumulativeReturn *float64 `json:"cumulative_return"`
	SharpeRatio      *float64 `json:"sharpe_ratio"`
	MaxDrawdown      *float64 `json:"max_drawdown"`
}

func (h *Handler) evaluations(c *gin.Context) ([]dataset.Evaluation, bool) {
	rows, err := dataset.ReadEvaluationFile(h.layout.EvaluationPath())
	if err != nil {
		fileError(c, err, "evaluation dataset not found")
		return nil, false
	}
	return rows, true
}

func (h *Handler) ListEvaluations(c *gin.Context) {
	rows, ok := h.evaluations(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":  0,
		"count": len(rows),
		"data":  evaluationViews(rows),
	})
}

func (h *Handler) GetEvaluation(c *gin.Context) {
	id := c.Param("id")
	rows, ok := h.evaluations(c)
	if !ok {
		return
	}
	for _, e := range rows {
		if e.StrategyID == id {
			c.JSON(http.StatusOK, gin.H{"code": 0, "data": newEvaluationView(e)})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "strategy not found", "id": id})
}

func (h *Handler) GetSummary(c *gin.Context) {
	rows, ok := h.evaluations(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": report.Summarize(rows)})
}

func (h *Handler) GetStrategy(c *gin.Context) {
	id := c.Param("id")
	raw, err := os.ReadFile(h.layout.ConfigPath(id))
	if err != nil {
		fileError(c, err, "strategy config not found")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (h *Handler) GetSeries(c *gin.Context) {
	id := c.Param("id")
	s, err := backtest.ReadSeriesFile(h.layout.ResultPath(id), id)
	if err != nil {
		fileError(c, err, "result series not found")
		return
	}
	rows := make([]rowView, 0, len(s.Rows))
	for _, r := range s.Rows {
		rows = append(rows, rowView{
			Date:             r.Date.Format(backtest.DateLayout),
			CumulativeReturn: report.Finite(r.CumulativeReturn),
			SharpeRatio:      report.Finite(r.SharpeRatio),
			MaxDrawdown:      report.Finite(r.MaxDrawdown),
		})
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "id": id, "count": len(rows), "data": rows})
}

func (h *Handler) GetReport(c *gin.Context) {
	raw, err := os.ReadFile(h.layout.ReportPath(c.Param("id")))
	if err != nil {
		fileError(c, err, "report not found")
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", raw)
}

func (h *Handler) GetChart(c *gin.Context) {
	name := strings.TrimSuffix(c.Param("name"), ".svg")
	raw, err := os.ReadFile(h.layout.ChartPath(name))
	if err != nil {
		fileError(c, err, "chart not found")
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", raw)
}

func (h *Handler) ListRuns(c *gin.Context) {
	if !h.requireHistory(c) {
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	runs, err := h.history.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "count": len(runs), "data": runs})
}

func (h *Handler) ListDatasets(c *gin.Context) {
	if !h.requireHistory(c) {
		return
	}
	sets, err := h.history.ListDatasets(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sets == nil {
		sets = []store.DatasetInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "count": len(sets), "data": sets})
}

func (h *Handler) ListDatasetEvaluations(c *gin.Context) {
	if !h.requireHistory(c) {
		return
	}
	id := c.Param("id")
	rows, err := h.history.ListEvaluations(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "dataset not found", "id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "count": len(rows), "data": evaluationViews(rows)})
}

func (h *Handler) requireHistory(c *gin.Context) bool {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run history is not configured"})
		return false
	}
	return true
}

func fileError(c *gin.Context, err error, notFound string) {
	if errors.Is(err, fs.ErrNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
