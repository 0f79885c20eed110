package tui

import (
	"testing"

	"github.com/vovakirdan/stagemap/internal/core"
	"github.com/vovakirdan/stagemap/internal/gamemap"
)

// forkStages is S - {L, R} - F, plus an island I.
func forkStages() []gamemap.StageView {
	return []gamemap.StageView{
		{ID: "S", Label: "Start", Neighbors: []string{"L", "R"}, Visible: true, State: gamemap.StageOpen},
		{ID: "L", Label: "Left", Neighbors: []string{"F"}, Visible: true, State: gamemap.StageLocked},
		{ID: "R", Label: "Right", Neighbors: []string{"F"}, Visible: true, State: gamemap.StageLocked},
		{ID: "F", Label: "Finish", Special: gamemap.SpecialFinish, Visible: true, State: gamemap.StageLocked},
		{ID: "I", Label: "Island", Visible: false, State: gamemap.StageUnstarted},
	}
}

func TestComputeLayoutColumns(t *testing.T) {
	l := computeLayout(forkStages(), []string{"S"}, core.NewRect(0, 0, 80, 20))

	if len(l.pos) != 5 {
		t.Fatalf("Expected 5 positions, got %d", len(l.pos))
	}
	s, left, right, f, island := l.pos["S"], l.pos["L"], l.pos["R"], l.pos["F"], l.pos["I"]

	if !(s.X < left.X && left.X == right.X && right.X < f.X && f.X < island.X) {
		t.Errorf("Columns out of order: S=%v L=%v R=%v F=%v I=%v", s, left, right, f, island)
	}
	if left.Y >= right.Y {
		t.Errorf("L should be above R: %v %v", left, right)
	}
	if l.order[0] != "S" {
		t.Errorf("Display order starts with %q", l.order[0])
	}

	area := core.NewRect(0, 0, 80, 20)
	for id, p := range l.pos {
		if !area.Contains(p.X, p.Y) {
			t.Errorf("Stage %s at %v is outside the area", id, p)
		}
	}
}

func TestLayoutStep(t *testing.T) {
	l := computeLayout(forkStages(), []string{"S"}, core.NewRect(0, 0, 80, 20))
	visible := []string{"S", "L", "R", "F"}

	if got := l.step("S", 1, 0, visible); got != "L" && got != "R" {
		t.Errorf("Right from S = %q, expected L or R", got)
	}
	if got := l.step("L", 0, 1, visible); got != "R" {
		t.Errorf("Down from L = %q, expected R", got)
	}
	if got := l.step("R", 0, -1, visible); got != "L" {
		t.Errorf("Up from R = %q, expected L", got)
	}
	if got := l.step("F", 1, 0, visible); got != "F" {
		t.Errorf("Right from F = %q, expected to stay", got)
	}
	if got := l.step("S", -1, 0, visible); got != "S" {
		t.Errorf("Left from S = %q, expected to stay", got)
	}
	if got := l.step("missing", 1, 0, visible); got != "S" {
		t.Errorf("Step from unknown stage = %q, expected first candidate", got)
	}
}

func TestStageGlyph(t *testing.T) {
	tests := []struct {
		view  gamemap.StageView
		glyph rune
		color core.Color
	}{
		{gamemap.StageView{State: gamemap.StageOpen}, '●', core.ColorYellow},
		{gamemap.StageView{State: gamemap.StageLocked}, '▪', core.ColorGray},
		{gamemap.StageView{State: gamemap.StageLocked, Special: gamemap.SpecialFinish}, '⚑', core.ColorGray},
		{gamemap.StageView{State: gamemap.StageCleared, Special: gamemap.SpecialExtraLife}, '♥', core.ColorBrightGreen},
		{gamemap.StageView{State: gamemap.StageSealed, Special: gamemap.SpecialExtraTime}, '✕', core.ColorRed},
		{gamemap.StageView{State: gamemap.StageUnstarted}, '●', core.ColorDim},
	}
	for _, tt := range tests {
		glyph, color := stageGlyph(tt.view)
		if glyph != tt.glyph || color != tt.color {
			t.Errorf("stageGlyph(%s/%q) = %q/%d, expected %q/%d",
				tt.view.State, tt.view.Special, glyph, color, tt.glyph, tt.color)
		}
	}
}

func TestDrawMap(t *testing.T) {
	stages := forkStages()
	area := core.NewRect(0, 0, 80, 20)
	l := computeLayout(stages, []string{"S"}, area)
	paths := []gamemap.PathView{
		{Key: gamemap.PathKey{From: "L", To: "S"}, State: gamemap.PathOpen, Visible: true},
		{Key: gamemap.PathKey{From: "F", To: "L"}, State: gamemap.PathLocked, Visible: false},
	}

	scr := core.NewScreen(80, 20)
	drawMap(scr, l, stages, paths, "S")

	s := l.pos["S"]
	if got := scr.Get(s.X, s.Y); got != '●' {
		t.Errorf("S glyph = %q", got)
	}
	if scr.Get(s.X-1, s.Y) != '[' || scr.Get(s.X+1, s.Y) != ']' {
		t.Error("Selected stage should be bracketed")
	}
	if got := scr.GetCell(s.X, s.Y).Color; got != core.ColorYellow {
		t.Errorf("S color = %d", got)
	}

	// Hidden stage is not drawn.
	i := l.pos["I"]
	if got := scr.Get(i.X, i.Y); got != ' ' {
		t.Errorf("Hidden stage drawn as %q", got)
	}

	// The visible path leaves a trail between S and L.
	found := false
	for _, p := range core.Line(s, l.pos["L"]) {
		if scr.Get(p.X, p.Y) == '·' {
			found = true
		}
	}
	if !found {
		t.Error("Expected a drawn path between S and L")
	}
}
