package gamemap

// LivesTracker holds the session's life pool.
type LivesTracker struct {
	max  int
	left int
}

// NewLivesTracker creates a full pool. Pass Unlimited for an endless pool.
func NewLivesTracker(pool int) *LivesTracker {
	return &LivesTracker{max: pool, left: pool}
}

// Unlimited reports whether lives never run out.
func (l *LivesTracker) Unlimited() bool { return l.max == Unlimited }

// Left returns the remaining lives, or Unlimited.
func (l *LivesTracker) Left() int { return l.left }

// Max returns the configured pool size.
func (l *LivesTracker) Max() int { return l.max }

// Exhausted reports whether the pool is empty.
func (l *LivesTracker) Exhausted() bool {
	return !l.Unlimited() && l.left <= 0
}

// Lose removes one life. It never goes below zero.
// Returns whether a life was actually taken.
func (l *LivesTracker) Lose() bool {
	if l.Unlimited() || l.left <= 0 {
		return false
	}
	l.left--
	return true
}

// Add grants n lives. Unlimited pools are unaffected.
func (l *LivesTracker) Add(n int) bool {
	if l.Unlimited() || n <= 0 {
		return false
	}
	l.left += n
	return true
}

// Reset refills the pool.
func (l *LivesTracker) Reset() { l.left = l.max }

// Restore sets the remaining lives, for example from a snapshot.
func (l *LivesTracker) Restore(left int) {
	if l.Unlimited() {
		return
	}
	if left < 0 {
		left = 0
	}
	l.left = left
}
