// Package registry provides a global registry for activity factories.
// Activities register themselves in init() functions, allowing the platform
// to open the exercise content a map refers to without hardcoded dependencies.
package registry

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vovakirdan/stagemap/internal/core"
)

// Activity is the interface every exercise content must implement.
// Activities contain pure logic with no external dependencies (especially no Bubble Tea).
// The platform handles input mapping, timing, and rendering.
type Activity interface {
	// ID returns the activity kind (e.g., "quiz", "sequence").
	ID() string

	// Title returns a human-readable name for display.
	Title() string

	// Variants lists the content sets the activity ships with.
	Variants() []string

	// Reset starts a fresh attempt. cfg.Variant selects the content set.
	Reset(cfg core.RuntimeConfig)

	// Step applies one input frame and reports the scoring status.
	Step(in core.InputFrame) core.StepResult

	// Render draws the activity into the provided screen buffer.
	// The screen is pre-cleared before this call.
	Render(dst *core.Screen)

	// State returns the current scoring status.
	State() core.ActivityState

	// Snapshot returns the resumable state of the attempt.
	Snapshot() json.RawMessage

	// Restore continues an attempt saved by Snapshot.
	Restore(data json.RawMessage) error

	// ShowSolutions switches to read-only display of the correct answers.
	ShowSolutions()
}

// ActivityInfo contains metadata about a registered activity.
type ActivityInfo struct {
	ID       string
	Title    string
	Variants []string
}

// Factory is a function that creates a new instance of an activity.
type Factory func() Activity

var (
	factories = make(map[string]Factory)
	infos     = make(map[string]ActivityInfo)
	mu        sync.RWMutex
)

// Register adds an activity factory to the registry.
// Typically called from an activity's init() function.
// Panics if an activity with the same ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: activity %q already registered", id))
	}

	factories[id] = f

	a := f()
	infos[id] = ActivityInfo{ID: id, Title: a.Title(), Variants: a.Variants()}
}

// ParseRef splits an activity reference of the form "kind" or "kind:variant".
func ParseRef(ref string) (kind, variant string) {
	kind, variant, _ = strings.Cut(ref, ":")
	return kind, variant
}

// List returns information about all registered activities, sorted by ID.
func List() []ActivityInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]ActivityInfo, 0, len(infos))
	for _, info := range infos {
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates the activity named by ref and returns the variant to
// pass in RuntimeConfig. An unknown kind or variant is an error.
func Create(ref string) (Activity, string, error) {
	kind, variant := ParseRef(ref)

	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[kind]
	if !ok {
		return nil, "", fmt.Errorf("registry: unknown activity %q", kind)
	}
	info := infos[kind]
	if variant == "" && len(info.Variants) > 0 {
		variant = info.Variants[0]
	}
	if variant != "" && !contains(info.Variants, variant) {
		return nil, "", fmt.Errorf("registry: activity %q has no variant %q", kind, variant)
	}

	return f(), variant, nil
}

// Exists checks if ref names a registered activity and variant.
func Exists(ref string) bool {
	kind, variant := ParseRef(ref)

	mu.RLock()
	defer mu.RUnlock()

	info, ok := infos[kind]
	if !ok {
		return false
	}
	return variant == "" || contains(info.Variants, variant)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
