package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fitlogapp/fitlog/internal/telemetry/tracing"
	"github.com/fitlogapp/fitlog/pkg"

	"github.com/coocood/freecache"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=catalog_mocks_test.go -package=catalog_test

const (
	catalogCacheExpireSeconds = 5 * 60
	catalogCacheSize          = 10 * 1024 * 1024
)

type catalogRepo interface {
	ListWorkouts(ctx context.Context, category string) ([]Workout, error)
	GetWorkout(ctx context.Context, id int) (*Workout, error)
	ListExercises(ctx context.Context, workoutID int) ([]Exercise, error)
}

type WorkoutsResponse struct {
	Workouts []Workout `json:"workouts"`
	Category string    `json:"category"`
	// Placeholder marks catalog data synthesized because no stored
	// workouts matched the requested nor the default category.
	Placeholder bool `json:"placeholder"`
}

type ExercisesResponse struct {
	WorkoutID int        `json:"workoutId"`
	Exercises []Exercise `json:"exercises"`
}

type Handler struct {
	repo            catalogRepo
	cache           *freecache.Cache
	defaultCategory string
}

func NewHandler(repo catalogRepo, defaultCategory string) *Handler {
	if defaultCategory == "" {
		defaultCategory = DefaultCategory
	}
	return &Handler{
		repo:            repo,
		cache:           freecache.NewCache(catalogCacheSize),
		defaultCategory: defaultCategory,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/catalog/workouts", handler.HandleWorkouts).Methods("GET", "OPTIONS").Name("catalog-workouts")
	r.HandleFunc("/catalog/workouts/{id}/exercises", handler.HandleExercises).Methods("GET", "OPTIONS").Name("catalog-exercises")
}

// HandleWorkouts serves the workout catalog for a category. Fallback
// chain: requested category, then the default category, then built-in
// placeholder workouts.
func (handler *Handler) HandleWorkouts(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.workouts")
	defer span.End()

	category := r.URL.Query().Get("category")
	if category == "" {
		category = handler.defaultCategory
	}
	span.SetAttributes(attribute.String("category", category))

	cacheKey := []byte("workouts::" + category)
	if cached, err := handler.cache.Get(cacheKey); err == nil {
		log.Tracef("catalog: workouts for [%s] served from cache", category)
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}

	resp, err := handler.workoutsForCategory(ctx, category)
	if err != nil {
		log.Errorf("list workouts [%s]: %s", category, err)
		http.Error(w, "failed to get workouts", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal workouts error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// cache failures only mean the next request hits the db again
	if err := handler.cache.Set(cacheKey, respJson, catalogCacheExpireSeconds); err != nil {
		log.Warnf("catalog: cache workouts for [%s]: %s", category, err)
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) workoutsForCategory(ctx context.Context, category string) (*WorkoutsResponse, error) {
	workouts, err := handler.repo.ListWorkouts(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	if len(workouts) > 0 {
		return &WorkoutsResponse{Workouts: workouts, Category: category}, nil
	}

	if category != handler.defaultCategory {
		log.Debugf("catalog: no workouts for [%s], falling back to [%s]", category, handler.defaultCategory)
		workouts, err = handler.repo.ListWorkouts(ctx, handler.defaultCategory)
		if err != nil {
			return nil, fmt.Errorf("list workouts, default category: %w", err)
		}
		if len(workouts) > 0 {
			return &WorkoutsResponse{Workouts: workouts, Category: handler.defaultCategory}, nil
		}
	}

	log.Debugf("catalog: no workouts for [%s] nor default, serving placeholders", category)
	return &WorkoutsResponse{
		Workouts:    PlaceholderWorkouts(category),
		Category:    category,
		Placeholder: true,
	}, nil
}

func (handler *Handler) HandleExercises(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.exercises")
	defer span.End()

	idStr := mux.Vars(r)["id"]
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int("workout.id", id))

	cacheKey := []byte("exercises::" + idStr)
	if cached, err := handler.cache.Get(cacheKey); err == nil {
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}

	if _, err := handler.repo.GetWorkout(ctx, id); err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("get workout %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	exercises, err := handler.repo.ListExercises(ctx, id)
	if err != nil {
		log.Errorf("list exercises for workout %d: %s", id, err)
		http.Error(w, "failed to get exercises", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ExercisesResponse{
		WorkoutID: id,
		Exercises: exercises,
	})
	if err != nil {
		log.Errorf("marshal exercises error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := handler.cache.Set(cacheKey, respJson, catalogCacheExpireSeconds); err != nil {
		log.Warnf("catalog: cache exercises for workout %d: %s", id, err)
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
