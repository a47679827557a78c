package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lootbot/internal/config"
	"lootbot/internal/economy"
	"lootbot/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP face of the economy engine. Chat-bot adapters call
// it with the platform user id; there is no session state here.
type Server struct {
	cfg  config.API
	log  *slog.Logger
	econ *economy.Service
	mux  *chi.Mux
}

func New(cfg config.API, logger *slog.Logger, econ *economy.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:  cfg,
		log:  logger,
		econ: econ,
		mux:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/checkin", s.handleCheckin)
		r.Get("/checkin/info", s.handleCheckinInfo)

		r.Get("/jobs", s.handleJobs)
		r.Post("/work", s.handleWork)

		r.Post("/bank/deposit", s.handleDeposit)
		r.Post("/bank/withdraw", s.handleWithdraw)
		r.Post("/bank/transfer", s.handleTransfer)
		r.Get("/bank/info", s.handleBankInfo)

		r.Post("/rob", s.handleRob)

		r.Get("/rank", s.handleRank)
		r.Get("/top", s.handleTop)
		r.Get("/profile", s.handleProfile)

		r.Post("/admin/interest", s.handleInterest)
	})
}

// identity is the caller block every mutating request carries.
type identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

func (id identity) validate() error {
	if strings.TrimSpace(id.UserID) == "" {
		return errors.New("user_id is required")
	}
	return nil
}

func queryIdentity(r *http.Request) (identity, error) {
	id := identity{
		UserID:      strings.TrimSpace(r.URL.Query().Get("user_id")),
		DisplayName: strings.TrimSpace(r.URL.Query().Get("display_name")),
	}
	return id, id.validate()
}

func (s *Server) handleCheckin(w http.ResponseWriter, r *http.Request) {
	var in identity
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := in.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.econ.Checkin(r.Context(), in.UserID, in.DisplayName)
	s.finish(w, "checkin", out.Declined, out, err)
}

func (s *Server) handleCheckinInfo(w http.ResponseWriter, r *http.Request) {
	in, err := queryIdentity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.econ.CheckinInfo(r.Context(), in.UserID, in.DisplayName)
	s.finish(w, "checkin_info", nil, out, err)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	in, err := queryIdentity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.econ.Jobs(r.Context(), in.UserID, in.DisplayName)
	s.finish(w, "jobs", nil, out, err)
}

func (s *Server) handleWork(w http.ResponseWriter, r *http.Request) {
	var in struct {
		identity
		Job string `json:"job"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := in.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.econ.Work(r.Context(), in.UserID, in.DisplayName, strings.TrimSpace(in.Job))
	s.finish(w, "work", out.Declined, out, err)
}

type amountRequest struct {
	identity
	Amount int64 `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var in amountRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := in.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.econ.Deposit(r.Context(), in.UserID, in.DisplayName, in.Amount)
	s.finish(w, "deposit", out.Declined, out, err)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var in amountRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := in.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.econ.Withdraw(r.Context(), in.UserID, in.DisplayName, in.Amount)
	s.finish(w, "withdraw", out.Declined, out, err)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var in struct {
		identity
		ToUserID string `json:"to_user_id"`
		Amount   int64  `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := in.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.ToUserID) == "" {
		writeError(w, http.StatusBadRequest, "to_user_id is required")
		return
	}
	out, err := s.econ.Transfer(r.Context(), in.UserID, in.DisplayName, strings.TrimSpace(in.ToUserID), in.Amount)
	s.finish(w, "transfer", out.Declined, out, err)
}

func (s *Server) handleBankInfo(w http.ResponseWriter, r *http.Request) {
	in, err := queryIdentity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.econ.BankInfo(r.Context(), in.UserID, in.DisplayName)
	s.finish(w, "bank_info", nil, out, err)
}

func (s *Server) handleRob(w http.ResponseWriter, r *http.Request) {
	var in struct {
		identity
		TargetUserID string `json:"target_user_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := in.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.TargetUserID) == "" {
		writeError(w, http.StatusBadRequest, "target_user_id is required")
		return
	}
	out, err := s.econ.Rob(r.Context(), in.UserID, in.DisplayName, strings.TrimSpace(in.TargetUserID))
	s.finish(w, "rob", out.Declined, out, err)
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	in, err := queryIdentity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.econ.Rank(r.Context(), in.UserID, in.DisplayName, metricParam(r))
	s.finish(w, "rank", nil, out, err)
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	n := 10
	if raw := strings.TrimSpace(r.URL.Query().Get("n")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 100 {
			writeError(w, http.StatusBadRequest, "n must be between 1 and 100")
			return
		}
		n = v
	}
	out, err := s.econ.TopN(r.Context(), metricParam(r), n)
	s.finish(w, "top", nil, out, err)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	in, err := queryIdentity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.econ.Profile(r.Context(), in.UserID, in.DisplayName)
	s.finish(w, "profile", nil, out, err)
}

func (s *Server) handleInterest(w http.ResponseWriter, r *http.Request) {
	out, err := s.econ.AccrueDailyInterest(r.Context())
	if err == nil {
		metrics.InterestCredited(out.TotalInterest)
	}
	s.finish(w, "interest", nil, out, err)
}

func metricParam(r *http.Request) economy.Metric {
	m := economy.Metric(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("metric"))))
	if m == "" {
		m = economy.MetricAssets
	}
	return m
}

// finish maps the engine outcome onto HTTP and the operations counter.
// Declines are normal results and ship with status 200.
func (s *Server) finish(w http.ResponseWriter, op string, declined *economy.Decline, payload any, err error) {
	if err != nil {
		metrics.Operation(op, metrics.OutcomeError)
		s.writeEngineError(w, op, err)
		return
	}
	if declined != nil {
		metrics.Operation(op, metrics.OutcomeDeclined)
	} else {
		metrics.Operation(op, metrics.OutcomeOK)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) writeEngineError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, economy.ErrUnknownMetric):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, economy.ErrTxConflict), errors.Is(err, economy.ErrStoreUnavailable):
		s.log.Warn("operation unavailable", "op", op, "err", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.log.Error("operation failed", "op", op, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
