package catalog

import "time"

type Workout struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Exercise struct {
	ID        int    `json:"id"`
	WorkoutID int    `json:"workoutId"`
	Name      string `json:"name"`
	Sets      int    `json:"sets"`
	Reps      int    `json:"reps"`
	OrderNum  int    `json:"orderNum"`
}

// DefaultCategory is the fallback category when the requested one has
// no workouts.
const DefaultCategory = "full_body"

// PlaceholderWorkouts is the last resort of the catalog fallback chain,
// so the front-end always has something to render.
func PlaceholderWorkouts(category string) []Workout {
	return []Workout{
		{
			ID:          -1,
			Title:       "Full Body Starter",
			Category:    category,
			Description: "A simple starter routine; shown while the catalog is empty.",
		},
		{
			ID:          -2,
			Title:       "Quick Core",
			Category:    category,
			Description: "Planks, crunches and bridges; shown while the catalog is empty.",
		},
	}
}
