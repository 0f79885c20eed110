// Package quiz implements a multiple-choice question activity. Each correct
// answer scores one point; the attempt ends after the last question.
package quiz

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/vovakirdan/stagemap/internal/core"
	"github.com/vovakirdan/stagemap/internal/registry"
)

// Questions drawn from the bank per attempt.
const questionsPerAttempt = 3

var banks map[string]Bank

func init() {
	var err error
	banks, err = loadBanks()
	if err != nil {
		panic(fmt.Sprintf("quiz: %v", err))
	}
	registry.Register("quiz", func() registry.Activity {
		return New()
	})
}

// Quiz is one attempt at a question bank.
type Quiz struct {
	bank    Bank
	order   []int // Bank indices asked this attempt
	index   int   // Current position in order
	cursor  int   // Highlighted option
	answers []int // Chosen option per asked question, -1 if unanswered
	score   int
	done    bool

	solutions bool
	review    int
}

// New creates a quiz. Reset must be called before use.
func New() *Quiz {
	return &Quiz{}
}

// ID returns the activity kind.
func (q *Quiz) ID() string { return "quiz" }

// Title returns the display name.
func (q *Quiz) Title() string { return "Quiz" }

// Variants returns the embedded bank names.
func (q *Quiz) Variants() []string { return variantNames(banks) }

// Reset draws a fresh set of questions from the variant's bank.
func (q *Quiz) Reset(cfg core.RuntimeConfig) {
	q.bank = lookupBank(cfg.Variant)
	rng := rand.New(rand.NewSource(cfg.Seed))
	perm := rng.Perm(len(q.bank.Questions))
	q.order = perm[:min(len(perm), questionsPerAttempt)]
	q.index = 0
	q.cursor = 0
	q.answers = make([]int, len(q.order))
	for i := range q.answers {
		q.answers[i] = -1
	}
	q.score = 0
	q.done = false
	q.solutions = false
	q.review = 0
}

func lookupBank(variant string) Bank {
	if b, ok := banks[variant]; ok {
		return b
	}
	return banks[variantNames(banks)[0]]
}

func (q *Quiz) question(i int) Question {
	return q.bank.Questions[q.order[i]]
}

// Step moves the highlight or answers the current question.
func (q *Quiz) Step(in core.InputFrame) core.StepResult {
	if q.solutions {
		switch {
		case in.Has(core.ActionLeft), in.Has(core.ActionUp):
			q.review = max(q.review-1, 0)
		case in.Has(core.ActionRight), in.Has(core.ActionDown):
			q.review = min(q.review+1, len(q.order)-1)
		}
		return core.StepResult{State: q.State()}
	}
	if q.done || len(q.order) == 0 {
		return core.StepResult{State: q.State()}
	}

	n := len(q.question(q.index).Options)
	switch {
	case in.Has(core.ActionUp):
		q.cursor = (q.cursor + n - 1) % n
	case in.Has(core.ActionDown):
		q.cursor = (q.cursor + 1) % n
	case in.Has(core.ActionConfirm):
		return q.answer()
	}
	return core.StepResult{State: q.State()}
}

func (q *Quiz) answer() core.StepResult {
	q.answers[q.index] = q.cursor
	if q.cursor == q.question(q.index).Answer {
		q.score++
	}
	q.index++
	q.cursor = 0
	if q.index == len(q.order) {
		q.done = true
		return core.StepResult{State: q.State(), Finished: true}
	}
	return core.StepResult{State: q.State()}
}

// State returns the score so far.
func (q *Quiz) State() core.ActivityState {
	return core.ActivityState{
		Score:    q.score,
		MaxScore: len(q.order),
		Done:     q.done,
	}
}

// ShowSolutions switches to the read-only answer review.
func (q *Quiz) ShowSolutions() {
	q.solutions = true
	q.review = 0
}

// Render draws the current question, or the review page.
func (q *Quiz) Render(dst *core.Screen) {
	w := dst.Width()
	dst.DrawTextCentered(0, q.bank.Title, core.ColorBrightWhite)
	if len(q.order) == 0 {
		return
	}

	i := q.index
	header := fmt.Sprintf("Question %d/%d", i+1, len(q.order))
	switch {
	case q.solutions:
		i = q.review
		header = fmt.Sprintf("Review %d/%d  ←/→", i+1, len(q.order))
	case q.done:
		dst.DrawTextCentered(2, fmt.Sprintf("Score: %d/%d", q.score, len(q.order)), core.ColorBrightYellow)
		return
	}
	dst.DrawTextCentered(1, header, core.ColorGray)

	qu := q.question(i)
	y := 3 + dst.DrawWrapped(2, 3, w-4, qu.Prompt, core.ColorDefault) + 1
	for oi, opt := range qu.Options {
		prefix, color := "  ", core.ColorDefault
		switch {
		case q.solutions && oi == qu.Answer:
			prefix, color = "✓ ", core.ColorGreen
		case q.solutions && oi == q.answers[i]:
			prefix, color = "✗ ", core.ColorRed
		case !q.solutions && oi == q.cursor:
			prefix, color = "> ", core.ColorYellow
		}
		dst.DrawTextColor(4, y+oi, prefix+opt, color)
	}
}

type snapshot struct {
	Variant string `json:"variant"`
	Order   []int  `json:"order"`
	Index   int    `json:"index"`
	Cursor  int    `json:"cursor"`
	Answers []int  `json:"answers"`
	Score   int    `json:"score"`
	Done    bool   `json:"done"`
}

// Snapshot returns the attempt so far as JSON.
func (q *Quiz) Snapshot() json.RawMessage {
	data, _ := json.Marshal(snapshot{
		Variant: q.bank.Variant,
		Order:   q.order,
		Index:   q.index,
		Cursor:  q.cursor,
		Answers: q.answers,
		Score:   q.score,
		Done:    q.done,
	})
	return data
}

// Restore continues an attempt saved by Snapshot.
func (q *Quiz) Restore(data json.RawMessage) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("quiz: decode snapshot: %w", err)
	}
	b, ok := banks[s.Variant]
	if !ok {
		return fmt.Errorf("quiz: unknown variant %q", s.Variant)
	}
	if len(s.Answers) != len(s.Order) || s.Index < 0 || s.Index > len(s.Order) {
		return fmt.Errorf("quiz: inconsistent snapshot")
	}
	for _, qi := range s.Order {
		if qi < 0 || qi >= len(b.Questions) {
			return fmt.Errorf("quiz: question %d out of range", qi)
		}
	}

	q.bank = b
	q.order = s.Order
	q.index = s.Index
	q.answers = s.Answers
	q.score = s.Score
	q.done = s.Done || s.Index == len(s.Order)
	q.cursor = 0
	if !q.done {
		q.cursor = core.Clamp(s.Cursor, 0, len(q.question(q.index).Options)-1)
	}
	q.solutions = false
	q.review = 0
	return nil
}
