package workoutlog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/fitlogapp/fitlog/internal/telemetry/metrics"
	"github.com/fitlogapp/fitlog/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var ErrNoUser = errors.New("no authenticated user")

// Tracker holds the local view of one user's workout day records. Writes
// are applied optimistically: the local record is mutated first, then the
// store write is issued, and the mutation is reverted if the write fails.
//
// The local view is authoritative once confirmed; a successful write is
// not followed by a verifying re-read, so a store that mutates fields
// beyond the written ones can diverge until the next change notification.
//
// Two in-flight toggles of the same date can interleave so that a stale
// rollback overwrites a newer optimistic update. Known hazard, accepted.
type Tracker struct {
	userID  string
	store   Store
	metrics *metrics.Manager

	mu      sync.Mutex
	days    map[string]WorkoutDay
	loading bool
	lastErr string

	sub       Subscription
	closeOnce sync.Once
}

// NewTracker loads the user's records and subscribes to their change
// notifications. Neither failure is fatal: the tracker degrades to an
// empty collection with a recorded error message and performs no further
// network operations until toggled.
func NewTracker(ctx context.Context, store Store, userID string, metricsManager *metrics.Manager) *Tracker {
	t := &Tracker{
		userID:  userID,
		store:   store,
		metrics: metricsManager,
		days:    make(map[string]WorkoutDay),
		loading: true,
	}

	// no user, no network: stay inert until a real user arrives
	if userID == "" {
		t.loading = false
		return t
	}

	t.refresh(ctx)

	sub, err := store.SubscribeToChanges(ctx, userID, func(event ChangeEvent) {
		t.onChangeEvent(event)
	})
	if err != nil {
		log.Errorf("tracker [%s]: subscribe to changes: %s", userID, err)
		t.setLastErr(fmt.Sprintf("subscribe to changes: %s", err))
	} else {
		t.sub = sub
	}

	return t
}

func (t *Tracker) UserID() string {
	return t.userID
}

// refresh reads all records from the store and replaces the local
// collection with the result. On failure the last known good state is
// kept (empty on first load) and the error message recorded.
func (t *Tracker) refresh(ctx context.Context) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutlog.tracker.refresh")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", t.userID))

	days, err := t.store.ReadWorkoutDays(ctx, t.userID)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.loading = false
	if err != nil {
		log.Errorf("tracker [%s]: read workout days: %s", t.userID, err)
		t.lastErr = fmt.Sprintf("read workout days: %s", err)
		return
	}

	t.lastErr = ""
	t.days = make(map[string]WorkoutDay, len(days))
	for _, day := range days {
		t.days[day.Date] = day
	}
}

func (t *Tracker) onChangeEvent(event ChangeEvent) {
	log.Tracef("tracker [%s]: change event [%s] for %s", t.userID, event.Op, event.Date)
	t.metrics.CounterChangeEvents.Inc()
	t.refresh(context.Background())
}

// ToggleWorkoutDay flips the completion state of the given date. A date
// with no record yet is marked completed. The mutation is applied
// locally first and written through to the store; if the write fails,
// the exact pre-toggle state is restored (value and presence), not
// re-fetched. The resulting record state is returned either way.
func (t *Tracker) ToggleWorkoutDay(ctx context.Context, date string) (_ WorkoutDay, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutlog.tracker.toggle")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", t.userID))
	span.SetAttributes(attribute.String("workoutday.date", date))

	if t.userID == "" {
		return WorkoutDay{}, ErrNoUser
	}

	// snapshot the prior record, then apply the target state
	t.mu.Lock()
	prev, existed := t.days[date]
	target := true
	if existed {
		target = !prev.Completed
	}
	day := WorkoutDay{UserID: t.userID, Date: date, Completed: target}
	t.days[date] = day
	t.mu.Unlock()

	t.metrics.CounterWorkoutToggles.Inc()

	if err := t.store.WriteWorkoutDay(ctx, t.userID, date, target); err != nil {
		// inverse transition: pre-toggle state, value and presence
		t.mu.Lock()
		if existed {
			t.days[date] = prev
		} else {
			delete(t.days, date)
		}
		t.mu.Unlock()

		t.metrics.CounterToggleRollbacks.Inc()
		log.Errorf("tracker [%s]: write workout day %s: %s", t.userID, date, err)
		return prev, fmt.Errorf("write workout day: %w", err)
	}

	// the optimistic state is now authoritative, no reconciliation
	return day, nil
}

// IsWorkoutCompleted returns the completed flag of the record matching
// the date. A date never toggled reads as not completed, not unknown.
func (t *Tracker) IsWorkoutCompleted(date string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.days[date].Completed
}

// Days returns a snapshot of the local collection, ordered by date,
// together with the loading flag and the last error message.
func (t *Tracker) Days() (days []WorkoutDay, loading bool, lastErr string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	days = make([]WorkoutDay, 0, len(t.days))
	for _, day := range t.days {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})

	return days, t.loading, t.lastErr
}

func (t *Tracker) setLastErr(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastErr = message
}

// Close releases the change subscription. Safe to call more than once;
// the subscription is closed exactly once.
func (t *Tracker) Close() {
	t.closeOnce.Do(func() {
		if t.sub == nil {
			return
		}
		if err := t.sub.Close(); err != nil {
			log.Errorf("tracker [%s]: close subscription: %s", t.userID, err)
		}
	})
}
