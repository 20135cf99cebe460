package workoutlog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fitlogapp/fitlog/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type writeCall struct {
	userID    string
	date      string
	completed bool
}

type fakeSubscription struct {
	mu     sync.Mutex
	closed int
}

func (s *fakeSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeSubscription) closedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeStore struct {
	mu   sync.Mutex
	days map[string][]WorkoutDay

	readErr  error
	writeErr error
	subErr   error

	reads  int
	writes []writeCall

	sub     *fakeSubscription
	onEvent func(ChangeEvent)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		days: make(map[string][]WorkoutDay),
	}
}

func (f *fakeStore) ReadWorkoutDays(_ context.Context, userID string) ([]WorkoutDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	return append([]WorkoutDay{}, f.days[userID]...), nil
}

func (f *fakeStore) WriteWorkoutDay(_ context.Context, userID, date string, completed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, writeCall{userID: userID, date: date, completed: completed})
	for i, day := range f.days[userID] {
		if day.Date == date {
			f.days[userID][i].Completed = completed
			return nil
		}
	}
	f.days[userID] = append(f.days[userID], WorkoutDay{UserID: userID, Date: date, Completed: completed})
	return nil
}

func (f *fakeStore) SubscribeToChanges(_ context.Context, _ string, onEvent func(ChangeEvent)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.sub = &fakeSubscription{}
	f.onEvent = onEvent
	return f.sub, nil
}

func (f *fakeStore) readsCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func (f *fakeStore) writeCalls() []writeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]writeCall{}, f.writes...)
}

func (f *fakeStore) setWriteErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeErr = err
}

func (f *fakeStore) setStoredDays(userID string, days []WorkoutDay) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.days[userID] = days
}

func (f *fakeStore) fireChangeEvent(event ChangeEvent) {
	f.mu.Lock()
	onEvent := f.onEvent
	f.mu.Unlock()
	onEvent(event)
}

func TestTracker_InitialLoad(t *testing.T) {
	store := newFakeStore()
	store.setStoredDays("u1", []WorkoutDay{
		{UserID: "u1", Date: "2024-01-07", Completed: false},
		{UserID: "u1", Date: "2024-01-05", Completed: true},
	})

	tracker := NewTracker(context.Background(), store, "u1", metrics.NewTestManager())
	require.NotNil(t, tracker)
	assert.Equal(t, "u1", tracker.UserID())

	days, loading, lastErr := tracker.Days()
	assert.False(t, loading)
	assert.Empty(t, lastErr)
	require.Len(t, days, 2)
	// ordered by date
	assert.Equal(t, "2024-01-05", days[0].Date)
	assert.Equal(t, "2024-01-07", days[1].Date)

	assert.True(t, tracker.IsWorkoutCompleted("2024-01-05"))
	assert.False(t, tracker.IsWorkoutCompleted("2024-01-07"))
	// a date never toggled reads as not completed
	assert.False(t, tracker.IsWorkoutCompleted("2021-11-11"))
}

func TestTracker_InitialLoadFailure(t *testing.T) {
	store := newFakeStore()
	store.readErr = errors.New("db down")

	tracker := NewTracker(context.Background(), store, "u1", metrics.NewTestManager())

	days, loading, lastErr := tracker.Days()
	assert.False(t, loading)
	assert.Contains(t, lastErr, "db down")
	assert.Empty(t, days)

	// a later change event re-reads and recovers
	store.mu.Lock()
	store.readErr = nil
	store.days["u1"] = []WorkoutDay{{UserID: "u1", Date: "2024-02-01", Completed: true}}
	store.mu.Unlock()

	store.fireChangeEvent(ChangeEvent{UserID: "u1", Date: "2024-02-01", Op: ChangeOpInsert})

	days, _, lastErr = tracker.Days()
	assert.Empty(t, lastErr)
	require.Len(t, days, 1)
	assert.True(t, tracker.IsWorkoutCompleted("2024-02-01"))
}

func TestTracker_SubscribeFailureIsNotFatal(t *testing.T) {
	store := newFakeStore()
	store.subErr = errors.New("pubsub gone")

	tracker := NewTracker(context.Background(), store, "u1", metrics.NewTestManager())
	require.NotNil(t, tracker)

	_, _, lastErr := tracker.Days()
	assert.Contains(t, lastErr, "pubsub gone")

	// still usable for toggles
	day, err := tracker.ToggleWorkoutDay(context.Background(), "2024-01-05")
	require.NoError(t, err)
	assert.True(t, day.Completed)

	tracker.Close() // no subscription to close, must not panic
}

func TestTracker_ToggleNewDate(t *testing.T) {
	store := newFakeStore()
	tracker := NewTracker(context.Background(), store, "u1", metrics.NewTestManager())

	day, err := tracker.ToggleWorkoutDay(context.Background(), "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, WorkoutDay{UserID: "u1", Date: "2024-01-05", Completed: true}, day)
	assert.True(t, tracker.IsWorkoutCompleted("2024-01-05"))

	writes := store.writeCalls()
	require.Len(t, writes, 1)
	assert.Equal(t, writeCall{userID: "u1", date: "2024-01-05", completed: true}, writes[0])
}

func TestTracker_ToggleTwiceFlipsBack(t *testing.T) {
	store := newFakeStore()
	tracker := NewTracker(context.Background(), store, "u1", metrics.NewTestManager())

	_, err := tracker.ToggleWorkoutDay(context.Background(), "2024-01-05")
	require.NoError(t, err)
	day, err := tracker.ToggleWorkoutDay(context.Background(), "2024-01-05")
	require.NoError(t, err)

	// flipped back to not completed, the record itself stays
	assert.False(t, day.Completed)
	assert.False(t, tracker.IsWorkoutCompleted("2024-01-05"))
	days, _, _ := tracker.Days()
	require.Len(t, days, 1)

	writes := store.writeCalls()
	require.Len(t, writes, 2)
	assert.True(t, writes[0].completed)
	assert.False(t, writes[1].completed)
}

func TestTracker_ToggleRollbackOnNewDate(t *testing.T) {
	store := newFakeStore()
	metricsManager := metrics.NewTestManager()
	tracker := NewTracker(context.Background(), store, "u1", metricsManager)

	store.setWriteErr(errors.New("write refused"))

	day, err := tracker.ToggleWorkoutDay(context.Background(), "2024-01-05")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write refused")
	assert.Equal(t, WorkoutDay{}, day)

	// the record must be gone again, not merely flipped to false
	days, _, _ := tracker.Days()
	assert.Empty(t, days)
	assert.False(t, tracker.IsWorkoutCompleted("2024-01-05"))
}

func TestTracker_ToggleRollbackKeepsPriorValue(t *testing.T) {
	store := newFakeStore()
	tracker := NewTracker(context.Background(), store, "u1", metrics.NewTestManager())

	day, err := tracker.ToggleWorkoutDay(context.Background(), "2024-01-05")
	require.NoError(t, err)
	assert.True(t, day.Completed)

	store.setWriteErr(errors.New("write refused"))

	day, err = tracker.ToggleWorkoutDay(context.Background(), "2024-01-05")
	require.Error(t, err)
	// the returned state is the restored pre-toggle record
	assert.True(t, day.Completed)
	assert.True(t, tracker.IsWorkoutCompleted("2024-01-05"))

	store.setWriteErr(nil)

	// and the next toggle starts from that restored state
	day, err = tracker.ToggleWorkoutDay(context.Background(), "2024-01-05")
	require.NoError(t, err)
	assert.False(t, day.Completed)
}

func TestTracker_ToggleWithoutUser(t *testing.T) {
	store := newFakeStore()
	tracker := NewTracker(context.Background(), store, "", metrics.NewTestManager())

	// inert: no initial read, no subscription
	assert.Equal(t, 0, store.readsCount())
	assert.Nil(t, store.sub)

	days, loading, lastErr := tracker.Days()
	assert.Empty(t, days)
	assert.False(t, loading)
	assert.Empty(t, lastErr)

	_, err := tracker.ToggleWorkoutDay(context.Background(), "2024-01-05")
	assert.ErrorIs(t, err, ErrNoUser)
	assert.Empty(t, store.writeCalls())
}

func TestTracker_ChangeEventTriggersSingleReRead(t *testing.T) {
	store := newFakeStore()
	store.setStoredDays("u1", []WorkoutDay{
		{UserID: "u1", Date: "2024-01-05", Completed: true},
		{UserID: "u1", Date: "2024-01-06", Completed: true},
	})

	tracker := NewTracker(context.Background(), store, "u1", metrics.NewTestManager())
	readsAfterLoad := store.readsCount()

	// the store now holds a different collection, the local copy is
	// replaced wholly, stale records included
	store.setStoredDays("u1", []WorkoutDay{
		{UserID: "u1", Date: "2024-01-06", Completed: false},
	})
	store.fireChangeEvent(ChangeEvent{UserID: "u1", Date: "2024-01-06", Op: ChangeOpUpdate})

	assert.Equal(t, readsAfterLoad+1, store.readsCount())

	days, _, _ := tracker.Days()
	require.Len(t, days, 1)
	assert.Equal(t, "2024-01-06", days[0].Date)
	assert.False(t, tracker.IsWorkoutCompleted("2024-01-06"))
	assert.False(t, tracker.IsWorkoutCompleted("2024-01-05"))
}

func TestTracker_CloseReleasesSubscriptionOnce(t *testing.T) {
	store := newFakeStore()
	tracker := NewTracker(context.Background(), store, "u1", metrics.NewTestManager())
	require.NotNil(t, store.sub)

	tracker.Close()
	tracker.Close()
	tracker.Close()

	assert.Equal(t, 1, store.sub.closedCount())
}
