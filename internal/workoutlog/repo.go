package workoutlog

import (
	"context"
	"fmt"
	"time"

	"github.com/fitlogapp/fitlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Repo is the postgres-backed store for workout day records. Committed
// writes are announced through the notifier so that live trackers of the
// same user re-sync.
type Repo struct {
	db       *pgxpool.Pool
	notifier *Notifier
}

func NewRepo(db *pgxpool.Pool, notifier *Notifier) *Repo {
	return &Repo{
		db:       db,
		notifier: notifier,
	}
}

var _ Store = (*Repo)(nil)

func (r *Repo) ReadWorkoutDays(ctx context.Context, userID string) (_ []WorkoutDay, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workoutlog.read")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT user_id, day, completed FROM workout_day WHERE user_id = $1 ORDER BY day;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	days := make([]WorkoutDay, 0)
	for rows.Next() {
		var userID string
		var day time.Time
		var completed bool
		if err := rows.Scan(&userID, &day, &completed); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		days = append(days, WorkoutDay{
			UserID:    userID,
			Date:      day.Format(DateKeyLayout),
			Completed: completed,
		})
	}

	span.SetAttributes(attribute.Int("workoutdays.count", len(days)))

	return days, nil
}

func (r *Repo) WriteWorkoutDay(ctx context.Context, userID, date string, completed bool) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workoutlog.write")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))
	span.SetAttributes(attribute.String("workoutday.date", date))
	span.SetAttributes(attribute.Bool("workoutday.completed", completed))

	// xmax = 0 only for freshly inserted rows
	var inserted bool
	err = r.db.QueryRow(
		ctx,
		`INSERT INTO workout_day (user_id, day, completed)
			VALUES ($1, $2::date, $3)
			ON CONFLICT (user_id, day) DO UPDATE SET completed = EXCLUDED.completed
		RETURNING (xmax = 0);`,
		userID, date, completed,
	).Scan(&inserted)
	if err != nil {
		return fmt.Errorf("upsert workout day: %w", err)
	}

	op := ChangeOpUpdate
	if inserted {
		op = ChangeOpInsert
	}

	// the write is committed at this point, a lost notification only
	// delays the re-sync of other live trackers
	if err := r.notifier.Publish(ctx, ChangeEvent{
		UserID: userID,
		Date:   date,
		Op:     op,
	}); err != nil {
		log.Errorf("workoutlog repo: publish change event [%s] %s: %s", userID, date, err)
	}

	return nil
}

func (r *Repo) SubscribeToChanges(ctx context.Context, userID string, onEvent func(ChangeEvent)) (Subscription, error) {
	return r.notifier.Subscribe(ctx, userID, onEvent)
}
