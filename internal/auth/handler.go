package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fitlogapp/fitlog/internal/middleware"
	"github.com/fitlogapp/fitlog/internal/telemetry/metrics"
	"github.com/fitlogapp/fitlog/internal/telemetry/tracing"
	"github.com/fitlogapp/fitlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type loginResponse struct {
	Token string `json:"token"`
}

type Handler struct {
	authService *Service
	// OnLogout lets the server release per-session resources (the
	// user's workout tracker) when the session ends.
	OnLogout func(userID string)
	// NowFunc stamps new sessions, injectable for testing.
	NowFunc func() time.Time
}

func NewHandler(authService *Service) *Handler {
	return &Handler{
		authService: authService,
		NowFunc:     time.Now,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	metricsManager *metrics.Manager,
	loginAllowedPerMin int,
) {
	loginSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	loginSubrouter.
		HandleFunc("/login", handler.handleLogin).
		Methods("POST", "OPTIONS").Name("login")
	loginSubrouter.
		HandleFunc("/logout", handler.handleLogout).
		Methods("GET", "OPTIONS").Name("logout")

	// rate limit the /login and /logout endpoints to prevent abuse
	loginSubrouter.Use(middleware.RateLimit(rateLimiter, "login", loginAllowedPerMin, metricsManager))
	loginSubrouter.Use(middleware.Cors())
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var credentials Credentials
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
			log.Errorf("login, unmarshal json params: %s", err)
			http.Error(w, "login failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("login, parse form: %s", err)
			http.Error(w, "login failed", http.StatusBadRequest)
			return
		}
		credentials.Username = r.Form.Get("username")
		credentials.Password = r.Form.Get("password")
	}

	if credentials.Username == "" || credentials.Password == "" {
		http.Error(w, "error, username or password empty", http.StatusBadRequest)
		return
	}

	token, userID, err := handler.authService.Login(ctx, credentials, handler.NowFunc())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrWrongPassword) {
			log.Tracef("login failed for [%s]: %s", credentials.Username, err)
			http.Error(w, "login failed", http.StatusUnauthorized)
			span.SetStatus(codes.Error, "invalid-credentials")
			return
		}
		log.Errorf("login failed for [%s]: %s", credentials.Username, err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	span.SetStatus(codes.Ok, fmt.Sprintf("user [%s] logged in", userID))

	respJson, err := json.Marshal(loginResponse{Token: token})
	if err != nil {
		log.Errorf("login, marshal response: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.logout")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	token := r.Header.Get(middleware.SessionTokenHeader)
	if token == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	userID, err := handler.authService.Logout(ctx, token)
	if err != nil {
		log.Tracef("logout failed: %s", err)
		http.Error(w, "no can do", http.StatusUnauthorized)
		span.SetStatus(codes.Error, "logout-failed")
		return
	}

	if handler.OnLogout != nil {
		handler.OnLogout(userID)
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}
