package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Victor-armando18/service-rules/internal/domain"
	"github.com/Victor-armando18/service-rules/internal/infrastructure"
	"github.com/Victor-armando18/service-rules/internal/interfaces"
	"github.com/Victor-armando18/service-rules/internal/usecase"
	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type PatchRequest struct {
	Order domain.Order             `json:"order"`
	Patch []map[string]interface{} `json:"patch"`
}

type PriceRequest struct {
	Prices      []*domain.Price  `json:"prices"`
	Customer    *domain.Customer `json:"customer,omitempty"`
	WeddingDate *time.Time       `json:"weddingDate,omitempty"`
	Agent       bool             `json:"agent"`
}

type DiscountResponse struct {
	Order   domain.Order    `json:"order"`
	Delta   json.RawMessage `json:"delta"`
	Outcome *domain.Outcome `json:"outcome,omitempty"`
}

type server struct {
	engine     interfaces.EngineFacade
	prices     *usecase.PriceFilter
	discounter *usecase.OrderDiscounter
	log        logrus.FieldLogger
}

func newServer(engine interfaces.EngineFacade, window usecase.PricingWindow, discountTrigger string, log logrus.FieldLogger) *server {
	return &server{
		engine:     engine,
		prices:     usecase.NewPriceFilter(engine, window, log),
		discounter: usecase.NewOrderDiscounter(engine, discountTrigger, log),
		log:        log,
	}
}

func newRouter(s *server, gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.Must(uuid.NewV4()).String() },
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.WithFields(logrus.Fields{
				"request_id": v.RequestID,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
			}).Debug("request")
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodPost, http.MethodPatch, http.MethodOptions, http.MethodGet},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept},
	}))

	e.POST("/orders", s.handleOrderCreated)
	e.POST("/orders/discount", s.handleDiscount)
	e.PATCH("/orders/discount", s.handlePatch)
	e.POST("/prices/applicable", s.handlePrices)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	return e
}

// handleOrderCreated computes the discount of a newly created order with the
// configured discount trigger.
func (s *server) handleOrderCreated(c echo.Context) error {
	var order domain.Order
	if err := c.Bind(&order); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid order payload"})
	}
	res, err := s.discounter.OnOrderCreated(c.Request().Context(), &order)
	if err != nil {
		return s.engineError(c, err)
	}
	return s.respondDiscount(c, order, order.WithDiscount(res), nil)
}

// handleDiscount evaluates ?trigger= (or the configured discount trigger) for the order.
func (s *server) handleDiscount(c echo.Context) error {
	var order domain.Order
	if err := c.Bind(&order); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid order payload"})
	}
	return s.decide(c, order, order)
}

func (s *server) handlePatch(c echo.Context) error {
	var req PatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid patch request"})
	}

	patchBytes, err := json.Marshal(req.Patch)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid patch request"})
	}
	updated, err := infrastructure.ApplyOrderPatch(req.Order, patchBytes)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}
	// a patched order is re-decided from scratch
	updated.AppliedDiscount = nil
	return s.decide(c, req.Order, updated)
}

func (s *server) decide(c echo.Context, before, order domain.Order) error {
	trigger := c.QueryParam("trigger")
	if trigger == "" {
		trigger = s.discounter.TriggerCode()
	}
	out, err := s.engine.ProcessRules(c.Request().Context(), &order, trigger)
	if err != nil {
		return s.engineError(c, err)
	}
	return s.respondDiscount(c, before, order.WithDiscount(out.Discount), out)
}

func (s *server) respondDiscount(c echo.Context, before, after domain.Order, out *domain.Outcome) error {
	delta, err := infrastructure.OrderDelta(before, after)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, DiscountResponse{Order: after, Delta: delta, Outcome: out})
}

func (s *server) handlePrices(c echo.Context) error {
	var req PriceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid price request"})
	}
	prices, err := s.prices.Filter(c.Request().Context(), req.Prices, usecase.PriceQuery{
		Customer:    req.Customer,
		WeddingDate: req.WeddingDate,
		Agent:       req.Agent,
	})
	if err != nil {
		return s.engineError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"prices": prices})
}

func (s *server) engineError(c echo.Context, err error) error {
	s.log.WithError(err).WithField("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).Error("rule evaluation failed")
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrRuleExecutionFailed) {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
