package registry

import (
	"encoding/json"
	"testing"

	"github.com/vovakirdan/stagemap/internal/core"
)

type fakeActivity struct {
	variant string
}

func (f *fakeActivity) ID() string { return "fake" }
func (f *fakeActivity) Title() string { return "Fake" }
func (f *fakeActivity) Variants() []string { return []string{"one", "two"} }
func (f *fakeActivity) Reset(cfg core.RuntimeConfig) { f.variant = cfg.Variant }
func (f *fakeActivity) Step(core.InputFrame) core.StepResult { return core.StepResult{} }
func (f *fakeActivity) Render(*core.Screen) {}
func (f *fakeActivity) State() core.ActivityState { return core.ActivityState{} }
func (f *fakeActivity) Snapshot() json.RawMessage { return nil }
func (f *fakeActivity) Restore(json.RawMessage) error { return nil }
func (f *fakeActivity) ShowSolutions() {}

func init() {
	Register("fake", func() Activity { return &fakeActivity{} })
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		ref, kind, variant string
	}{
		{"quiz:capitals", "quiz", "capitals"},
		{"quiz", "quiz", ""},
		{"a:b:c", "a", "b:c"},
	}
	for _, tt := range tests {
		kind, variant := ParseRef(tt.ref)
		if kind != tt.kind || variant != tt.variant {
			t.Errorf("ParseRef(%q) = %q, %q; expected %q, %q", tt.ref, kind, variant, tt.kind, tt.variant)
		}
	}
}

func TestCreate(t *testing.T) {
	a, variant, err := Create("fake:two")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if a.ID() != "fake" || variant != "two" {
		t.Errorf("Create() = %q, %q", a.ID(), variant)
	}

	_, variant, err = Create("fake")
	if err != nil {
		t.Fatalf("Create() without variant error: %v", err)
	}
	if variant != "one" {
		t.Errorf("Default variant = %q, expected first variant", variant)
	}
}

func TestCreateUnknown(t *testing.T) {
	if _, _, err := Create("missing"); err == nil {
		t.Error("Create() should fail for an unknown kind")
	}
	if _, _, err := Create("fake:three"); err == nil {
		t.Error("Create() should fail for an unknown variant")
	}
}

func TestExistsAndList(t *testing.T) {
	if !Exists("fake:one") || !Exists("fake") {
		t.Error("Exists() should accept registered refs")
	}
	if Exists("fake:zero") || Exists("other") {
		t.Error("Exists() should reject unknown refs")
	}

	found := false
	for _, info := range List() {
		if info.ID == "fake" {
			found = true
			if info.Title != "Fake" || len(info.Variants) != 2 {
				t.Errorf("List() info = %+v", info)
			}
		}
	}
	if !found {
		t.Error("List() should include registered activity")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Register() should panic on duplicate ID")
		}
	}()
	Register("fake", func() Activity { return &fakeActivity{} })
}
