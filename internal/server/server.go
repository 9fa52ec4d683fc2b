// Package server exposes the operator HTTP API: liveness, a status
// snapshot, the emergency-stop switch and the day's trade list. It
// reads the same tracker and risk manager the engine writes, so what
// the operator sees is what the next cycle will act on.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/temaptz/trade-agent/internal/account"
	"github.com/temaptz/trade-agent/internal/logger"
	"github.com/temaptz/trade-agent/internal/risk"
	"github.com/temaptz/trade-agent/internal/store"
	"github.com/temaptz/trade-agent/internal/types"
)

// TradeLister is the store surface the API reads through.
// *store.TradeStore satisfies it.
type TradeLister interface {
	TradesOn(t time.Time) ([]store.TradeRecord, error)
}

type Server struct {
	cfg     *store.Config
	tracker *account.Tracker
	risk    *risk.Manager
	trades  TradeLister
	router  *gin.Engine
	httpSrv *http.Server
	now     func() time.Time

	lastStep atomic.Pointer[types.StepResult]
}

type Params struct {
	Cfg     *store.Config
	Tracker *account.Tracker
	Risk    *risk.Manager
	Trades  TradeLister
}

func New(p Params) *Server {
	gin.SetMode(gin.ReleaseMode)

	// gin's own logger would bypass the slog pipeline; recovery alone.
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		cfg:     p.Cfg,
		tracker: p.Tracker,
		risk:    p.Risk,
		trades:  p.Trades,
		router:  router,
		now:     time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealthz)
	s.router.GET("/status", s.handleStatus)
	s.router.GET("/trades/today", s.handleTradesToday)
	s.router.POST("/control/emergency-stop", s.handleEmergencyStop)
}

// RecordStep publishes the latest cycle result for /status. Called by
// the run loop after every step.
func (s *Server) RecordStep(res *types.StepResult) {
	if res != nil {
		s.lastStep.Store(res)
	}
}

// Start blocks serving the API until Shutdown.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info(context.Background(), "Operator API listening", "addr", s.cfg.Server.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	st := s.tracker.Snapshot()
	resp := gin.H{
		"mode":           s.cfg.Mode,
		"pair":           s.cfg.Pair,
		"exchange":       s.cfg.Exchange.Name,
		"account":        st,
		"risk":           s.risk.Assess(&st),
		"emergency_stop": s.risk.EmergencyStopped(),
		"time":           s.now().UTC().Format(time.RFC3339),
	}
	if res := s.lastStep.Load(); res != nil {
		resp["last_step"] = res
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleTradesToday(c *gin.Context) {
	day := s.now().UTC()
	trades, err := s.trades.TradesOn(day)
	if err != nil {
		logger.Error(c.Request.Context(), "Trade list query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if trades == nil {
		trades = []store.TradeRecord{}
	}
	c.JSON(http.StatusOK, gin.H{
		"day":    day.Format("2006-01-02"),
		"count":  len(trades),
		"trades": trades,
	})
}

func (s *Server) handleEmergencyStop(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": `body must be {"enabled": true|false}`})
		return
	}

	if *req.Enabled {
		s.risk.EmergencyStop()
	} else {
		s.risk.ClearEmergencyStop()
	}
	logger.Risk(c.Request.Context(), s.cfg.Pair, "EMERGENCY_STOP_TOGGLED", "enabled", *req.Enabled)
	c.JSON(http.StatusOK, gin.H{"emergency_stop": s.risk.EmergencyStopped()})
}
