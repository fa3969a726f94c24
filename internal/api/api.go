// Package api is the HTTP gateway: request validation in, uniform envelopes
// out. Handlers are stateless; everything durable lives behind the store.
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperdrive-otc/api/internal/config"
	"github.com/hyperdrive-otc/api/internal/matching"
	"github.com/hyperdrive-otc/api/internal/store"
	"github.com/hyperdrive-otc/api/internal/types"
	"github.com/hyperdrive-otc/api/pkg/middleware"
	"github.com/hyperdrive-otc/api/pkg/response"
)

// simulateTimeout bounds the dry-run call so a stuck node cannot pin a
// request slot.
const simulateTimeout = 15 * time.Second

// Handlers routes inbound requests to the order store and matching client.
// The matcher is nil when no settlement node is configured; the match routes
// then report upstream failure instead of panicking.
type Handlers struct {
	orders  *store.Store
	matcher *matching.Client
	logger  zerolog.Logger
}

func NewHandlers(orders *store.Store, matcher *matching.Client) *Handlers {
	return &Handlers{
		orders:  orders,
		matcher: matcher,
		logger:  log.With().Str("component", "api").Logger(),
	}
}

// NewRouter wires middleware and routes. Configuration arrives by injection;
// nothing here reads the environment.
func NewRouter(cfg *config.Config, h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RateLimit())

	router.HandleMethodNotAllowed = true
	router.NoMethod(response.MethodNotAllowed)
	router.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "no such route")
	})

	v1 := router.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		{
			orders.GET("", h.GetOrdersHandler())
			orders.POST("", h.CreateOrderHandler())
			orders.PUT("", h.UpdateOrderHandler())
			orders.DELETE("", h.CancelOrderHandler())
		}

		internal := v1.Group("/internal")
		internal.Use(middleware.InternalAuth(cfg.InternalJWTSecret))
		{
			internal.POST("/match", h.MatchHandler())
			internal.POST("/cancel", h.InternalCancelHandler())
		}
	}

	return router
}

// GetOrdersHandler serves both single fetch (?key=) and filtered listing
// (?status=&trader=&hyperdrive=&continuationToken=).
func (h *Handlers) GetOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.Query("key"); key != "" {
			record, err := h.orders.Get(c.Request.Context(), key)
			response.Handle(c, record, err)
			return
		}

		var filters types.ListFilters
		if status := c.Query("status"); status != "" {
			parsed, err := types.ParseOrderStatus(status)
			if err != nil {
				response.BadRequest(c, err.Error())
				return
			}
			filters.Status = parsed
		}
		filters.Trader = c.Query("trader")
		filters.Hyperdrive = c.Query("hyperdrive")

		result, err := h.orders.List(c.Request.Context(), filters, c.Query("continuationToken"))
		response.Handle(c, result, err)
	}
}

// CreateOrderHandler handles POST: a full signed OrderIntent body.
func (h *Handlers) CreateOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		order, ok := bindIntent(c)
		if !ok {
			return
		}

		record, err := h.orders.Create(c.Request.Context(), order)
		response.Handle(c, record, err)
	}
}

// UpdateOrderHandler handles PUT: overwrite the pending record addressed by
// the intent's own (trader, hyperdrive, salt) triple.
func (h *Handlers) UpdateOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		order, ok := bindIntent(c)
		if !ok {
			return
		}

		record, err := h.orders.Update(c.Request.Context(), order)
		response.Handle(c, record, err)
	}
}

// CancelOrderHandler handles DELETE with a {"key": ...} body.
func (h *Handlers) CancelOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.CancelRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Key == "" {
			response.BadRequest(c, "body must be {\"key\": \"<order key>\"}")
			return
		}

		record, err := h.orders.Cancel(c.Request.Context(), req.Key)
		response.Handle(c, record, err)
	}
}

// MatchHandler pairs a stored pending order with the submitted
// counter-intent: dry-run first, then the real settlement, recording the
// fill only after confirmation.
func (h *Handlers) MatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.matcher == nil {
			response.InternalError(c)
			return
		}

		var req types.MatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if err := req.Intent.Validate(); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		ctx := c.Request.Context()
		pending, err := h.orders.Get(ctx, req.PendingKey)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		simCtx, cancel := context.WithTimeout(ctx, simulateTimeout)
		feasible := h.matcher.SimulateMatch(simCtx, &pending.Data.OrderIntent, &req.Intent)
		cancel()
		if !feasible {
			response.Conflict(c, "match simulation failed")
			return
		}

		result, err := h.matcher.FillOrder(ctx, pending.Key, req.Intent)
		response.Handle(c, result, err)
	}
}

// InternalCancelHandler cancels through the matching client so the on-chain
// invalidation is attempted too; without a settlement node it falls back to
// the store alone.
func (h *Handlers) InternalCancelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.CancelRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Key == "" {
			response.BadRequest(c, "body must be {\"key\": \"<order key>\"}")
			return
		}

		ctx := c.Request.Context()
		if h.matcher != nil {
			record, err := h.matcher.CancelOrder(ctx, req.Key)
			response.Handle(c, record, err)
			return
		}
		record, err := h.orders.Cancel(ctx, req.Key)
		response.Handle(c, record, err)
	}
}

// bindIntent decodes and validates an OrderIntent body, replying 400 on any
// shape problem before handler logic runs.
func bindIntent(c *gin.Context) (types.OrderIntent, bool) {
	var order types.OrderIntent
	if err := c.ShouldBindJSON(&order); err != nil {
		response.BadRequest(c, err.Error())
		return order, false
	}
	if err := order.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return order, false
	}
	if order.Expiry <= time.Now().Unix() {
		response.BadRequest(c, "intent is expired")
		return order, false
	}
	return order, true
}
