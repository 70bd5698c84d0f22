package models

// GradeEntry is one band of the grading scale.
type GradeEntry struct {
	Label         string  `json:"grade" validate:"required"`
	MinPercentage float64 `json:"min_percentage" validate:"min=0,max=100"`
	Description   string  `json:"description"`
}

// GradingScale maps a percentage in [0,100] to exactly one grade. Entries are
// evaluated in descending MinPercentage order; the lowest entry must sit at 0
// so every percentage resolves.
type GradingScale struct {
	Entries []GradeEntry `json:"entries" validate:"required,min=1,dive"`
}

// Lookup returns the first entry whose MinPercentage the given percentage
// meets, scanning from the highest band down. Callers must only use a scale
// that passed validation, which guarantees a zero-floor fallback.
func (s *GradingScale) Lookup(percentage float64) GradeEntry {
	for _, e := range s.Entries {
		if percentage >= e.MinPercentage {
			return e
		}
	}
	// Unreachable for a validated scale; keep the last entry as a hard floor.
	return s.Entries[len(s.Entries)-1]
}
