package domain

type HabitStats struct {
	HabitID     ID      `json:"habit_id"`
	Name        string  `json:"name"`
	Attempts    int     `json:"attempts"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"success_rate"`
}

type OverallStats struct {
	Attempts    int     `json:"attempts"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"success_rate"`
}

// Rate returns successes/attempts as a percentage, 0 when there were no attempts.
func Rate(successes, attempts int) float64 {
	if attempts <= 0 {
		return 0
	}
	return float64(successes) / float64(attempts) * 100
}
