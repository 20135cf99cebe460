package workoutlog

// DateKeyLayout is the calendar date form used as the per-user
// workout day key.
const DateKeyLayout = "2006-01-02"

// WorkoutDay marks whether the workout planned for a calendar date was
// completed. There is at most one record per (user, date); a day once
// toggled is never removed, only flipped back to completed=false.
type WorkoutDay struct {
	UserID    string `json:"userId"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

// ChangeOp is the kind of row change that produced a notification.
// Consumers do not distinguish ops - any event triggers a full re-read.
type ChangeOp string

const (
	ChangeOpInsert ChangeOp = "insert"
	ChangeOpUpdate ChangeOp = "update"
	ChangeOpDelete ChangeOp = "delete"
)

// ChangeEvent is published after a workout day row of a user changes.
type ChangeEvent struct {
	UserID string   `json:"userId"`
	Date   string   `json:"date"`
	Op     ChangeOp `json:"op"`
}
