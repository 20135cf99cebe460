package workoutlog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fitlogapp/fitlog/internal/middleware"
	"github.com/fitlogapp/fitlog/internal/telemetry/tracing"
	"github.com/fitlogapp/fitlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type DaysResponse struct {
	Days    []WorkoutDay `json:"days"`
	Loading bool         `json:"loading"`
	Error   string       `json:"error,omitempty"`
}

type DayResponse struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

type Handler struct {
	trackers *Manager
}

func NewHandler(trackers *Manager) *Handler {
	return &Handler{
		trackers: trackers,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/workoutlog/days", handler.HandleDays).Methods("GET", "OPTIONS").Name("workout-days")
	r.HandleFunc("/workoutlog/days/{date}", handler.HandleDay).Methods("GET", "OPTIONS").Name("workout-day")
	r.HandleFunc("/workoutlog/days/{date}/toggle", handler.HandleToggle).Methods("POST", "OPTIONS").Name("toggle-workout-day")
}

func (handler *Handler) HandleDays(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workoutlog.days")
	defer span.End()

	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	days, loading, lastErr := handler.trackers.ForUser(ctx, userID).Days()

	respJson, err := json.Marshal(DaysResponse{
		Days:    days,
		Loading: loading,
		Error:   lastErr,
	})
	if err != nil {
		log.Errorf("marshal workout days error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) HandleDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workoutlog.day")
	defer span.End()

	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	date := mux.Vars(r)["date"]
	if !pkg.IsDateKey(date) {
		http.Error(w, "error, invalid date", http.StatusBadRequest)
		return
	}

	completed := handler.trackers.ForUser(ctx, userID).IsWorkoutCompleted(date)

	respJson, err := json.Marshal(DayResponse{
		Date:      date,
		Completed: completed,
	})
	if err != nil {
		log.Errorf("marshal workout day error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workoutlog.toggle")
	defer span.End()

	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	date := mux.Vars(r)["date"]
	if !pkg.IsDateKey(date) {
		http.Error(w, "error, invalid date", http.StatusBadRequest)
		return
	}

	tracker := handler.trackers.ForUser(ctx, userID)
	day, err := tracker.ToggleWorkoutDay(ctx, date)
	if err != nil {
		if errors.Is(err, ErrNoUser) {
			http.Error(w, "no can do", http.StatusUnauthorized)
			return
		}
		// the optimistic mutation was rolled back, report the restored state
		log.Errorf("toggle workout day [%s] %s: %s", userID, date, err)
		http.Error(w, "error, failed to toggle workout day", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(DayResponse{
		Date:      day.Date,
		Completed: day.Completed,
	})
	if err != nil {
		log.Errorf("marshal toggled workout day error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
