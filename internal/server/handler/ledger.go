// Package handler exposes the emissions ledger over HTTP. Mutating routes
// take the caller identity from the verified actor token and the logical
// time from the block clock; callers supply neither themselves.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/greentrace/carbonledger/internal/blockclock"
	"github.com/greentrace/carbonledger/internal/ledger"
	"go.uber.org/zap"
)

// LedgerHandler exposes the ledger's state-transition and query endpoints.
type LedgerHandler struct {
	ledger ledger.Ledger
	clock  *blockclock.Clock
	logger *zap.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(l ledger.Ledger, clock *blockclock.Clock, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: l, clock: clock, logger: logger}
}

// Register mounts the ledger routes on the given router group. authn guards
// the mutating routes; queries are public reads.
func (h *LedgerHandler) Register(rg *gin.RouterGroup, authn gin.HandlerFunc) {
	rg.POST("/profiles", authn, h.CreateProfile)
	rg.POST("/emissions", authn, h.LogEmission)

	actors := rg.Group("/actors")
	{
		actors.GET("/:actor", h.GetProfile)
		actors.GET("/:actor/total", h.Total)
		actors.GET("/:actor/history", h.History)
		actors.GET("/:actor/categories/:category", h.ByCategory)
	}
}

// writeLedgerError renders a ledger failure with its numeric code, which
// doubles as the HTTP status. Errors outside the taxonomy are internal.
func (h *LedgerHandler) writeLedgerError(c *gin.Context, err error) {
	code := ledger.Code(err)
	if code == 0 {
		h.logger.Error("ledger operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	RecordRejection(code)
	c.JSON(code, gin.H{"error": err.Error(), "code": code})
}

// CreateProfile handles POST /profiles — create_profile for the caller.
func (h *LedgerHandler) CreateProfile(c *gin.Context) {
	actor := callerActor(c)

	if err := h.ledger.CreateProfile(c.Request.Context(), actor); err != nil {
		h.writeLedgerError(c, err)
		return
	}

	RecordProfileCreated()
	c.JSON(http.StatusCreated, gin.H{"actor": actor, "created": true})
}

// categoryField accepts a category as either a JSON string ("energy") or a
// bare number (2). Unknown values are kept and passed through to the core so
// the profile-existence check still runs first.
type categoryField struct {
	raw string
}

func (f *categoryField) UnmarshalJSON(b []byte) error {
	f.raw = strings.Trim(string(b), `"`)
	return nil
}

type logEmissionRequest struct {
	Units    uint64        `json:"units"`
	Category categoryField `json:"category"`
}

// LogEmission handles POST /emissions — log_emission for the caller at the
// current block clock tick.
func (h *LedgerHandler) LogEmission(c *gin.Context) {
	actor := callerActor(c)

	var req logEmissionRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	category := ledger.ParseCategory(req.Category.raw)
	tick := h.clock.Current()

	if err := h.ledger.LogEmission(c.Request.Context(), actor, req.Units, category, tick); err != nil {
		h.writeLedgerError(c, err)
		return
	}

	RecordEmission(category)
	c.JSON(http.StatusOK, gin.H{
		"accepted":     true,
		"actor":        actor,
		"logical_time": tick,
	})
}

// GetProfile handles GET /actors/:actor — the actor's aggregate state.
func (h *LedgerHandler) GetProfile(c *gin.Context) {
	p, err := h.ledger.Profile(c.Request.Context(), c.Param("actor"))
	if err != nil {
		h.writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Total handles GET /actors/:actor/total — total_emissions. Returns 0 for an
// unknown actor; never fails.
func (h *LedgerHandler) Total(c *gin.Context) {
	actor := c.Param("actor")

	total, err := h.ledger.TotalEmissions(c.Request.Context(), actor)
	if err != nil {
		h.writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actor": actor, "total_emissions": total})
}

// History handles GET /actors/:actor/history. Known limitation: the response
// carries the running total, not an itemized record list.
func (h *LedgerHandler) History(c *gin.Context) {
	actor := c.Param("actor")

	total, err := h.ledger.EmissionHistory(c.Request.Context(), actor)
	if err != nil {
		h.writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actor": actor, "total_emissions": total})
}

// ByCategory handles GET /actors/:actor/categories/:category. Known gap:
// always 0 until a per-category index exists.
func (h *LedgerHandler) ByCategory(c *gin.Context) {
	actor := c.Param("actor")
	category := ledger.ParseCategory(c.Param("category"))

	total, err := h.ledger.EmissionsByCategory(c.Request.Context(), actor, category)
	if err != nil {
		h.writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"actor":           actor,
		"category":        category.String(),
		"total_emissions": total,
	})
}
