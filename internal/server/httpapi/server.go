// Package httpapi exposes the Lumina HTTP/JSON API handlers.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/lumina-journal/lumina/internal/annotate"
	"github.com/lumina-journal/lumina/internal/convert"
	"github.com/lumina-journal/lumina/internal/errs"
	"github.com/lumina-journal/lumina/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	auth     service.AuthService
	entries  service.EntryService
	analyzer annotate.Analyzer
	log      *zap.Logger
}

// New constructs the API server with injected services.
func New(auth service.AuthService, entries service.EntryService, analyzer annotate.Analyzer, log *zap.Logger) *Server {
	return &Server{auth: auth, entries: entries, analyzer: analyzer, log: log}
}

// Router builds the full route table with middleware applied.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/signup", s.handleSignup).Methods(http.MethodPost)
	api.HandleFunc("/auth/confirm", s.handleConfirm).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/session", s.requireAuth(s.handleSession)).Methods(http.MethodGet)
	api.HandleFunc("/auth/logout", s.requireAuth(s.handleLogout)).Methods(http.MethodPost)

	api.HandleFunc("/entries", s.requireAuth(s.handleListEntries)).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id}", s.requireAuth(s.handleGetEntry)).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id}", s.requireAuth(s.handlePutEntry)).Methods(http.MethodPut)
	api.HandleFunc("/entries/{id}", s.requireAuth(s.handleDeleteEntry)).Methods(http.MethodDelete)

	api.HandleFunc("/analyze", s.requireAuth(s.handleAnalyze)).Methods(http.MethodPost)

	r.Use(Recover(s.log), Logging(s.log))
	return r
}

// --- Auth ---

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type sessionResponse struct {
	AccessToken string              `json:"access_token,omitempty"`
	ExpiresAt   int64               `json:"expires_at,omitempty"` // ms since epoch
	User        convert.UserPayload `json:"user"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad json")
		return
	}

	u, confirmTok, err := s.auth.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}

	if confirmTok != "" {
		// Delivery of the token is out of band; it is logged for the
		// operator, never returned to the caller.
		s.log.Info("confirmation token issued",
			zap.String("user_id", u.ID.String()),
			zap.String("token", confirmTok),
		)
		writeJSON(w, http.StatusAccepted, map[string]any{
			"confirmation_required": true,
			"user":                  convert.ToUserPayload(u),
		})
		return
	}

	// Confirmation is off: sign the fresh account in right away.
	tok, u, err := s.auth.LoginWithIP(r.Context(), req.Email, req.Password, r.RemoteAddr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		AccessToken: tok.AccessToken,
		ExpiresAt:   tok.ExpiresAt.UnixMilli(),
		User:        convert.ToUserPayload(u),
	})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeJSONError(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := s.auth.Confirm(r.Context(), req.Token); err != nil {
		if isValidation(err) || errors.Is(err, errs.ErrNotFound) {
			writeJSONError(w, http.StatusBadRequest, "bad token")
			return
		}
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad json")
		return
	}

	tok, u, err := s.auth.LoginWithIP(r.Context(), req.Email, req.Password, r.RemoteAddr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken: tok.AccessToken,
		ExpiresAt:   tok.ExpiresAt.UnixMilli(),
		User:        convert.ToUserPayload(u),
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromCtx(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "no auth")
		return
	}
	u, err := s.auth.UserByID(r.Context(), userID)
	if err != nil {
		// a token for a deleted account is just an invalid session
		writeJSONError(w, http.StatusUnauthorized, "unknown account")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": convert.ToUserPayload(u)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if userID, ok := UserIDFromCtx(r.Context()); ok {
		s.log.Info("logout", zap.String("user_id", userID.String()))
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Entries ---

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())

	list, err := s.entries.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	recs := make([]convert.EntryRecord, 0, len(list))
	for _, e := range list {
		recs = append(recs, convert.ToRecord(e))
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad id")
		return
	}

	e, err := s.entries.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToRecord(*e))
}

func (s *Server) handlePutEntry(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad id")
		return
	}

	var rec convert.EntryRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad json")
		return
	}
	rec.ID = id.String()
	rec.UserID = userID.String() // owner always comes from the session

	e, err := convert.FromRecord(rec)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("bad entry: %v", err))
		return
	}

	saved, err := s.entries.Save(r.Context(), userID, e)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToRecord(saved))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad id")
		return
	}

	if err := s.entries.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Analyze ---

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad json")
		return
	}

	res, err := s.analyzer.Analyze(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, annotate.ErrTooShort) {
			writeJSONError(w, http.StatusUnprocessableEntity, "text too short")
			return
		}
		s.log.Warn("analyze failed", zap.Error(err))
		writeJSONError(w, http.StatusBadGateway, "analysis unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sentiment": res.Sentiment,
		"tags":      res.Tags,
		"summary":   res.Summary,
	})
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.FromString(mux.Vars(r)["id"])
}
