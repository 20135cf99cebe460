package workoutlog

import "context"

// Subscription is a live change-notification feed for one user. It must
// be released exactly once when the owning scope ends.
type Subscription interface {
	Close() error
}

// Store is the backing collaborator of the tracker: it persists workout
// day records and delivers row-change notifications scoped to a user.
type Store interface {
	// ReadWorkoutDays returns all workout day records of the user.
	ReadWorkoutDays(ctx context.Context, userID string) ([]WorkoutDay, error)
	// WriteWorkoutDay persists the completed flag for (user, date),
	// creating the record if it does not exist yet.
	WriteWorkoutDay(ctx context.Context, userID, date string, completed bool) error
	// SubscribeToChanges calls onEvent for every change of the user's
	// workout day rows, until the subscription is closed.
	SubscribeToChanges(ctx context.Context, userID string, onEvent func(ChangeEvent)) (Subscription, error)
}
