package config

import "fmt"

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyFixed  DifficultyPreset = "fixed"
)

// ParsePreset validates a preset name. Empty means normal.
func ParsePreset(s string) (DifficultyPreset, error) {
	switch p := DifficultyPreset(s); p {
	case "":
		return DifficultyNormal, nil
	case DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyFixed:
		return p, nil
	default:
		return "", fmt.Errorf("config: unknown difficulty %q (want easy, normal, hard or fixed)", s)
	}
}

// ApplyPreset adjusts lives and time limits of a map for a difficulty preset.
func ApplyPreset(m *MapFile, preset DifficultyPreset) {
	switch preset {
	case DifficultyEasy:
		if m.Behaviour.Lives > 0 {
			m.Behaviour.Lives += 2
		}
		scaleTimes(m, 3, 2)
	case DifficultyHard:
		if m.Behaviour.Lives > 1 {
			m.Behaviour.Lives /= 2
		}
		scaleTimes(m, 2, 3)
	case DifficultyFixed:
		m.Behaviour.TimeLimit = 0
		m.Behaviour.WarnAt = 0
		for i := range m.Stages {
			if ex := m.Stages[i].Exercise; ex != nil {
				ex.TimeLimit = 0
				ex.WarnAt = 0
			}
		}
	}
}

// scaleTimes multiplies every time limit by num/den. Warning thresholds stay
// below their limits.
func scaleTimes(m *MapFile, num, den int) {
	m.Behaviour.TimeLimit, m.Behaviour.WarnAt = scaleLimit(m.Behaviour.TimeLimit, m.Behaviour.WarnAt, num, den)
	for i := range m.Stages {
		if ex := m.Stages[i].Exercise; ex != nil {
			ex.TimeLimit, ex.WarnAt = scaleLimit(ex.TimeLimit, ex.WarnAt, num, den)
		}
	}
}

func scaleLimit(limit, warnAt, num, den int) (int, int) {
	if limit <= 0 {
		return limit, warnAt
	}
	limit = limit * num / den
	if limit < 1 {
		limit = 1
	}
	if warnAt >= limit {
		warnAt = limit / 2
	}
	return limit, warnAt
}
