package enginehttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"shipdesk/internal/carrier"
	"shipdesk/internal/command"
	"shipdesk/internal/dispatch"
	"shipdesk/internal/facility"
	"shipdesk/internal/memory"
	"shipdesk/internal/orders"
	"shipdesk/internal/quote"
)

// Router mounts the engine's query and command endpoints. Read paths
// only touch store snapshots; they never block the write path.
type Router struct {
	store    *memory.Store
	history  *memory.History
	orch     *dispatch.Orchestrator
	orders   *orders.Book
	commands *command.Dispatcher
	stream   *streamHub
}

func NewRouter(store *memory.Store, history *memory.History, orch *dispatch.Orchestrator, book *orders.Book, commands *command.Dispatcher) *Router {
	r := &Router{
		store:    store,
		history:  history,
		orch:     orch,
		orders:   book,
		commands: commands,
		stream:   newStreamHub(),
	}
	if store != nil {
		store.RegisterObserver(r.stream)
	}
	return r
}

// Register mounts the /api routes on the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/analytics", r.handleAnalytics)
	group.GET("/records/:kind", r.handleRecords)
	group.POST("/records/:kind", r.handleRecordPush)
	group.GET("/history/:category", r.handleHistory)
	group.POST("/route", r.handleRoute)
	group.GET("/track/:provider/:number", r.handleTrack)
	group.GET("/stream", r.handleStream)
	if r.orders != nil {
		group.POST("/orders", r.handleOrderPut)
		group.POST("/orders/:id/assign", r.handleOrderAssign)
	}
	if r.commands != nil {
		group.POST("/command", r.handleCommand)
	}
}

func (r *Router) handleAnalytics(c *gin.Context) {
	c.JSON(http.StatusOK, r.store.Analytics())
}

func (r *Router) handleRecords(c *gin.Context) {
	kind, ok := memory.ParseKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown record kind"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	c.JSON(http.StatusOK, gin.H{"kind": kind, "records": r.store.Recent(kind, limit)})
}

type recordPushRequest struct {
	Provider string          `json:"provider"`
	Service  string          `json:"service"`
	Price    decimal.Decimal `json:"price"`
	Summary  string          `json:"summary"`
	Payload  json.RawMessage `json:"payload"`
}

// handleRecordPush lets collaborators (webhook ingestion, delivery
// confirmations) append to a window through the store's one write API.
func (r *Router) handleRecordPush(c *gin.Context) {
	kind, ok := memory.ParseKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown record kind"})
		return
	}
	var req recordPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := r.store.Record(c.Request.Context(), kind, memory.Record{
		Provider: req.Provider,
		Service:  req.Service,
		Price:    req.Price,
		Summary:  req.Summary,
		Payload:  req.Payload,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (r *Router) handleHistory(c *gin.Context) {
	if r.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history log not enabled"})
		return
	}
	cat, ok := quote.ParseCategory(c.Param("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat, "entries": r.history.All(cat)})
}

type routeRequest struct {
	CustomerZip string  `json:"customer_zip"`
	WeightLb    float64 `json:"weight_lb"`
}

func (r *Router) handleRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	decision, err := r.orch.Route(c.Request.Context(), req.CustomerZip, req.WeightLb)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (r *Router) handleTrack(c *gin.Context) {
	status, err := r.orch.Track(c.Request.Context(), c.Param("provider"), c.Param("number"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (r *Router) handleOrderPut(c *gin.Context) {
	var order dispatch.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := r.orders.Put(order); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (r *Router) handleOrderAssign(c *gin.Context) {
	decision, err := r.orch.AssignOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, decision)
}

type commandRequest struct {
	Command string `json:"command"`
}

func (r *Router) handleCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := r.commands.Execute(c.Request.Context(), req.Command)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"output": out})
}

// statusForError maps the engine's typed failures onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, quote.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, carrier.ErrUnknownProvider),
		errors.Is(err, dispatch.ErrUnknownOrder):
		return http.StatusNotFound
	case errors.Is(err, facility.ErrNoFacilityConfigured),
		errors.Is(err, dispatch.ErrNoQuoteAvailable):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
