package gamemap

// ScoreAggregator derives the session score from the reachable exercises.
type ScoreAggregator struct {
	finishCap int

	total    int // Sum of clamped exercise scores
	rawMax   int // Sum of exercise max scores
	score    int // Reported score
	maxScore int // Reported max score

	fullAnnounced bool
}

// NewScoreAggregator creates an aggregator with an optional finish-score cap (0 = none).
func NewScoreAggregator(finishCap int) *ScoreAggregator {
	return &ScoreAggregator{finishCap: finishCap}
}

// Score returns min(total, max).
func (a *ScoreAggregator) Score() int { return a.score }

// MaxScore returns min(finish cap, sum of exercise max scores).
func (a *ScoreAggregator) MaxScore() int { return a.maxScore }

// Total returns the unreported raw total.
func (a *ScoreAggregator) Total() int { return a.total }

// RawMax returns the sum of every reachable exercise's max score.
func (a *ScoreAggregator) RawMax() int { return a.rawMax }

// FullScoreAnnounced reports whether the full-score latch has fired this session.
func (a *ScoreAggregator) FullScoreAnnounced() bool { return a.fullAnnounced }

// Recompute refreshes the totals. It returns whether the reported pair changed
// and whether full score was reached for the first time this session.
func (a *ScoreAggregator) Recompute(exercises []*ExerciseRuntime) (changed, fullReached bool) {
	total, rawMax := 0, 0
	for _, ex := range exercises {
		exMax := ex.MaxScore()
		rawMax += exMax
		total += clamp(ex.Score(), 0, exMax)
	}

	maxScore := rawMax
	if a.finishCap > 0 && a.finishCap < maxScore {
		maxScore = a.finishCap
	}
	score := total
	if score > maxScore {
		score = maxScore
	}

	changed = score != a.score || maxScore != a.maxScore
	a.total, a.rawMax, a.score, a.maxScore = total, rawMax, score, maxScore

	if !a.fullAnnounced && maxScore > 0 && total >= maxScore {
		a.fullAnnounced = true
		fullReached = true
	}
	return changed, fullReached
}

// Reset clears totals and re-arms the full-score latch.
func (a *ScoreAggregator) Reset() {
	a.total, a.rawMax, a.score, a.maxScore = 0, 0, 0, 0
	a.fullAnnounced = false
}

// restoreLatch sets the latch without announcing, used after restoring a snapshot.
func (a *ScoreAggregator) restoreLatch() {
	a.fullAnnounced = a.maxScore > 0 && a.total >= a.maxScore
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
