// Package api serves the economy over HTTP: JSON queries, rate-limited
// commands and a websocket stream of state changes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"OilTycoon/internal/economy"
	"OilTycoon/internal/metrics"
	"OilTycoon/internal/model"
	"OilTycoon/internal/notifier"
)

// Options tunes the command rate limit. Zero values take 5/s with a burst of 10.
type Options struct {
	RateLimit float64
	Burst     int
}

// Server exposes one engine.
type Server struct {
	engine   *economy.Engine
	metrics  *metrics.Metrics
	logger   *log.Logger
	limiter  *clientLimiter
	upgrader websocket.Upgrader
	hub      *hub

	unsubscribe func()
}

// NewServer subscribes to eng; call Close to detach.
func NewServer(eng *economy.Engine, m *metrics.Metrics, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	s := &Server{
		engine:  eng,
		metrics: m,
		logger:  logger,
		limiter: newClientLimiter(opts.RateLimit, opts.Burst),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		hub: newHub(),
	}
	s.unsubscribe = eng.Subscribe(s.hub.notify)
	return s
}

// Close stops forwarding engine changes to websocket clients.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/state", s.getState)
	r.Get("/status", s.getStatus)
	r.Get("/catalog", s.getCatalog)
	r.Get("/prestige", s.getPrestige)
	r.Get("/investments/{idx}/quote", s.getInvestmentQuote)
	r.Get("/specialists/{kind}/quote", s.getSpecialistQuote)
	r.Get("/ws", s.handleWS)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.middleware)
		r.Post("/investments/{idx}/buy", s.postBuy)
		r.Post("/investments/{idx}/start", s.postStart)
		r.Post("/investments/{idx}/manager", s.postManager)
		r.Post("/specialists/{kind}/hire", s.postHire)
		r.Post("/specialists/{kind}/target", s.postTarget)
		r.Post("/upgrades/{id}/buy", s.postUpgrade)
		r.Post("/retire", s.postRetire)
		r.Post("/save", s.postSave)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("api shutdown", "err", err)
		}
	}()

	s.logger.Info("api listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "took", time.Since(start))
	})
}

type quote struct {
	Cost        float64 `json:"cost"`
	ManagerCost float64 `json:"manager_cost"`
	Revenue     float64 `json:"revenue"`
	DurationMs  float64 `json:"duration_ms"`
}

type prestige struct {
	Current   float64 `json:"current"`
	Potential float64 `json:"potential"`
	CanRetire bool    `json:"can_retire"`
}

// commandResult answers every POST that maps to a bool engine command.
type commandResult struct {
	Applied bool    `json:"applied"`
	Balance float64 `json:"balance"`
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, notifier.FormatStatus(notifier.StatusFromEngine(s.engine)))
}

func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Catalog())
}

func (s *Server) getPrestige(w http.ResponseWriter, r *http.Request) {
	current, potential := s.engine.Multipliers()
	writeJSON(w, http.StatusOK, prestige{Current: current, Potential: potential, CanRetire: potential > current})
}

func (s *Server) getInvestmentQuote(w http.ResponseWriter, r *http.Request) {
	idx, ok := s.investmentParam(w, r)
	if !ok {
		return
	}
	n := 1
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}
	writeJSON(w, http.StatusOK, quote{
		Cost:        s.engine.CostToBuy(idx, n),
		ManagerCost: s.engine.ManagerCost(idx),
		Revenue:     s.engine.RevenuePerCycle(idx),
		DurationMs:  s.engine.ProductionDuration(idx),
	})
}

func (s *Server) getSpecialistQuote(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"cost": s.engine.SpecialistCost(kind)})
}

func (s *Server) postBuy(w http.ResponseWriter, r *http.Request) {
	idx, ok := s.investmentParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	if !decodeOptional(w, r, &body) {
		return
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}
	s.command(w, s.engine.BuyInvestment(idx, body.Quantity))
}

func (s *Server) postStart(w http.ResponseWriter, r *http.Request) {
	if idx, ok := s.investmentParam(w, r); ok {
		s.command(w, s.engine.StartProduction(idx))
	}
}

func (s *Server) postManager(w http.ResponseWriter, r *http.Request) {
	if idx, ok := s.investmentParam(w, r); ok {
		s.command(w, s.engine.HireManager(idx))
	}
}

func (s *Server) postHire(w http.ResponseWriter, r *http.Request) {
	if kind, ok := kindParam(w, r); ok {
		s.command(w, s.engine.HireSpecialist(kind))
	}
}

func (s *Server) postTarget(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Target *int `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Target == nil {
		writeError(w, http.StatusBadRequest, `body must be {"target": <idx>}`)
		return
	}
	s.command(w, s.engine.SetSpecialistTarget(kind, *body.Target))
}

func (s *Server) postUpgrade(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad upgrade id")
		return
	}
	if _, known := s.engine.Catalog().Upgrade(id); !known {
		writeError(w, http.StatusNotFound, "unknown upgrade")
		return
	}
	s.command(w, s.engine.BuyUpgrade(id))
}

func (s *Server) postRetire(w http.ResponseWriter, r *http.Request) {
	evt, ok := s.engine.RetireIfWorthwhile()
	if !ok {
		writeError(w, http.StatusConflict, "retiring now would not raise the multiplier")
		return
	}
	writeJSON(w, http.StatusOK, evt)
}

func (s *Server) postSave(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Save(r.Context()); err != nil {
		s.logger.Error("save via api", "err", err)
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// command reports a rejected command as 409 so clients can tell it from a
// malformed request.
func (s *Server) command(w http.ResponseWriter, applied bool) {
	status := http.StatusOK
	if !applied {
		status = http.StatusConflict
	}
	writeJSON(w, status, commandResult{Applied: applied, Balance: s.engine.Snapshot().Balance})
}

func (s *Server) investmentParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil || !s.engine.Catalog().ValidIndex(idx) {
		writeError(w, http.StatusNotFound, "unknown investment")
		return 0, false
	}
	return idx, true
}

func kindParam(w http.ResponseWriter, r *http.Request) (model.SpecialistKind, bool) {
	kind := model.SpecialistKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeError(w, http.StatusNotFound, "unknown specialist")
		return "", false
	}
	return kind, true
}

// decodeOptional decodes a JSON body when one was sent.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad request")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
