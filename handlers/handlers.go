package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/kmills/shortlink/dao"
	"github.com/kmills/shortlink/env"
	"github.com/kmills/shortlink/status"
	"github.com/kmills/shortlink/telemetry"
	"github.com/kmills/shortlink/version"
	"github.com/kmills/shortlink/web"
	"github.com/labstack/echo/v5"
)

const instanceHeader string = "x-instance-uuid"

type Handlers struct {
	dao    dao.LinkDao
	status *status.SimpleStatus
	id     string
	otel   *telemetry.Metrics

	redirects     atomic.Int64
	linksCreated  atomic.Int64
	linksDeleted  atomic.Int64
	statsRequests atomic.Int64
}

type linkRequest struct {
	TargetURL string `json:"target_url"`
	ShortCode string `json:"short_code,omitempty"`
}

type errorReturn struct {
	Error string `json:"error"`
}

type health struct {
	Ok      bool   `json:"ok"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// metrics is the cheap in-process view served on /diag/metrics. The OTel
// instruments cover the same events for anyone running a collector.
type metrics struct {
	Redirects     int64  `json:"redirects"`
	LinksCreated  int64  `json:"links_created"`
	LinksDeleted  int64  `json:"links_deleted"`
	StatsRequests int64  `json:"stats_requests"`
	Uptime        string `json:"uptime"`
}

func CreateHandlers(d dao.LinkDao, s *status.SimpleStatus, id string, m *telemetry.Metrics) *Handlers {
	return &Handlers{dao: d, status: s, id: id, otel: m}
}

func (h *Handlers) redirectHandler(c *echo.Context) error {
	code := c.Param("code")
	target, err := h.dao.Redirect(code)
	if err != nil {
		return h.errJSON(c, "redirecting "+code, err)
	}

	h.redirects.Add(1)
	if h.otel != nil {
		h.otel.Redirects.Add(c.Request().Context(), 1)
	}
	return c.Redirect(http.StatusFound, target)
}

func (h *Handlers) addHandler(c *echo.Context) error {
	var req linkRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorReturn{Error: "couldn't parse request body"})
	}

	link, err := dao.CreateLink(h.dao, req.TargetURL, req.ShortCode)
	if err != nil {
		return h.errJSON(c, "creating link", err)
	}

	h.linksCreated.Add(1)
	if h.otel != nil {
		h.otel.LinksCreated.Add(c.Request().Context(), 1)
	}
	return c.JSON(http.StatusCreated, link)
}

func (h *Handlers) listHandler(c *echo.Context) error {
	links, err := h.dao.List()
	if err != nil {
		return h.errJSON(c, "listing links", err)
	}
	return c.JSON(http.StatusOK, links)
}

func (h *Handlers) statsHandler(c *echo.Context) error {
	code := c.Param("code")
	link, err := h.dao.Get(code)
	if err != nil {
		return h.errJSON(c, "getting stats for "+code, err)
	}

	h.statsRequests.Add(1)
	if h.otel != nil {
		h.otel.StatsRequests.Add(c.Request().Context(), 1)
	}
	return c.JSON(http.StatusOK, link)
}

func (h *Handlers) deleteHandler(c *echo.Context) error {
	code := c.Param("code")
	if err := h.dao.Delete(code); err != nil {
		return h.errJSON(c, "deleting "+code, err)
	}

	h.linksDeleted.Add(1)
	if h.otel != nil {
		h.otel.LinksDeleted.Add(c.Request().Context(), 1)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) healthHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, health{
		Ok:      h.status.Current().Code == status.OK,
		Version: version.Version,
		Uptime:  h.status.Uptime(),
	})
}

func (h *Handlers) metricsHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, metrics{
		Redirects:     h.redirects.Load(),
		LinksCreated:  h.linksCreated.Load(),
		LinksDeleted:  h.linksDeleted.Load(),
		StatsRequests: h.statsRequests.Load(),
		Uptime:        h.status.Uptime(),
	})
}

func (h *Handlers) dashboardHandler(c *echo.Context) error {
	return c.HTMLBlob(http.StatusOK, web.Dashboard)
}

// statsPageHandler serves the static stats page for any code; the page
// itself fetches /api/links/:code and renders the 404 if there is one.
func (h *Handlers) statsPageHandler(c *echo.Context) error {
	return c.HTMLBlob(http.StatusOK, web.Stats)
}

func (h *Handlers) SetUp(e *echo.Echo) {
	e.GET("/healthz", h.healthHandler)
	e.GET("/status", h.status.BackgroundHandler)
	e.GET("/diag/metrics", h.metricsHandler)
	e.GET("/code/:code", h.statsPageHandler)
	e.POST("/api/links", h.addHandler)
	e.GET("/api/links", h.listHandler)
	e.GET("/api/links/:code", h.statsHandler)
	e.DELETE("/api/links/:code", h.deleteHandler)
	e.GET("/", h.dashboardHandler)
	e.GET("/:code", h.redirectHandler)
	e.Use(h.idHeader(), h.timing(), logWrapper)
}

// errJSON maps a registry error to its status code. Backend failures get a
// generic body; the detail only goes to the server log.
func (h *Handlers) errJSON(c *echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, dao.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorReturn{Error: err.Error()})
	case errors.Is(err, dao.ErrDuplicateCode):
		return c.JSON(http.StatusConflict, errorReturn{Error: err.Error()})
	case errors.Is(err, dao.ErrEmptyURL), errors.Is(err, dao.ErrInvalidCode):
		return c.JSON(http.StatusBadRequest, errorReturn{Error: err.Error()})
	default:
		log.Printf("Error %s: %v", op, err)
		return c.JSON(http.StatusInternalServerError, errorReturn{Error: "storage failure"})
	}
}

func (h *Handlers) idHeader() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			c.Response().Header().Set(instanceHeader, h.id)
			return next(c)
		}
	}
}

func (h *Handlers) timing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			if h.otel == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			elapsed := float64(time.Since(start).Microseconds()) / 1000.0
			h.otel.RequestDuration.Record(c.Request().Context(), elapsed)
			return err
		}
	}
}

func logWrapper(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		if env.BoolOrDefault("logrequests", false) {
			log.Printf("access:  %s - %s", c.Request().Method, c.Request().RequestURI)
		}
		return next(c)
	}
}
