package tui

import (
	"github.com/vovakirdan/stagemap/internal/core"
	"github.com/vovakirdan/stagemap/internal/gamemap"
)

// mapLayout places stages on screen: one column per hop from the start.
type mapLayout struct {
	area  core.Rect
	pos   map[string]core.Point
	order []string // Column-major display order
	colW  int
}

// computeLayout assigns every stage a screen position inside area.
func computeLayout(stages []gamemap.StageView, starts []string, area core.Rect) mapLayout {
	adj := make(map[string][]string, len(stages))
	for _, s := range stages {
		for _, n := range s.Neighbors {
			adj[s.ID] = append(adj[s.ID], n)
			adj[n] = append(adj[n], s.ID)
		}
	}

	depth := make(map[string]int, len(stages))
	queue := make([]string, 0, len(stages))
	for _, id := range starts {
		if _, seen := depth[id]; !seen {
			depth[id] = 0
			queue = append(queue, id)
		}
	}
	maxDepth := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, n := range adj[id] {
			if _, seen := depth[n]; seen {
				continue
			}
			depth[n] = depth[id] + 1
			maxDepth = max(maxDepth, depth[n])
			queue = append(queue, n)
		}
	}

	// Stages cut off from the start go into a trailing column.
	columns := make([][]string, maxDepth+2)
	for _, s := range stages {
		d, ok := depth[s.ID]
		if !ok {
			d = maxDepth + 1
		}
		columns[d] = append(columns[d], s.ID)
	}
	if len(columns[len(columns)-1]) == 0 {
		columns = columns[:len(columns)-1]
	}

	l := mapLayout{
		area: area,
		pos:  make(map[string]core.Point, len(stages)),
		colW: max(area.W/max(len(columns), 1), 1),
	}
	for c, ids := range columns {
		rowH := max(area.H/max(len(ids), 1), 1)
		for r, id := range ids {
			l.pos[id] = core.Point{
				X: area.X + c*l.colW + l.colW/2,
				Y: area.Y + r*rowH + rowH/2,
			}
			l.order = append(l.order, id)
		}
	}
	return l
}

// step returns the candidate nearest to from in direction (dx, dy), or from.
func (l mapLayout) step(from string, dx, dy int, candidates []string) string {
	origin, ok := l.pos[from]
	if !ok {
		if len(candidates) > 0 {
			return candidates[0]
		}
		return from
	}

	best, bestScore := from, -1
	for _, id := range candidates {
		p, ok := l.pos[id]
		if !ok || id == from {
			continue
		}
		vx, vy := p.X-origin.X, p.Y-origin.Y
		along := vx*dx + vy*dy
		if along <= 0 {
			continue
		}
		across := core.Abs(vx*dy) + core.Abs(vy*dx)
		score := along + 2*across
		if bestScore < 0 || score < bestScore {
			best, bestScore = id, score
		}
	}
	return best
}

// stageGlyph returns the marker and color for a stage.
func stageGlyph(s gamemap.StageView) (rune, core.Color) {
	glyph := '●'
	switch s.Special {
	case gamemap.SpecialFinish:
		glyph = '⚑'
	case gamemap.SpecialExtraLife:
		glyph = '♥'
	case gamemap.SpecialExtraTime:
		glyph = '⧗'
	}

	switch s.State {
	case gamemap.StageLocked:
		if s.Special == "" {
			glyph = '▪'
		}
		return glyph, core.ColorGray
	case gamemap.StageUnlocking:
		return glyph, core.ColorOrange
	case gamemap.StageOpen:
		return glyph, core.ColorYellow
	case gamemap.StageOpened:
		return glyph, core.ColorCyan
	case gamemap.StageCompleted:
		return glyph, core.ColorBlue
	case gamemap.StageCleared:
		return glyph, core.ColorBrightGreen
	case gamemap.StageSealed:
		return '✕', core.ColorRed
	}
	return glyph, core.ColorDim
}

func pathStyle(p gamemap.PathState) (rune, core.Color) {
	switch p {
	case gamemap.PathOpen:
		return '·', core.ColorYellow
	case gamemap.PathCleared:
		return '·', core.ColorGreen
	case gamemap.PathSealed:
		return '·', core.ColorRed
	}
	return '·', core.ColorDim
}

// drawMap renders visible paths, then visible stages with their labels.
func drawMap(dst *core.Screen, l mapLayout, stages []gamemap.StageView, paths []gamemap.PathView, selected string) {
	for _, p := range paths {
		if !p.Visible {
			continue
		}
		a, okA := l.pos[p.Key.From]
		b, okB := l.pos[p.Key.To]
		if !okA || !okB {
			continue
		}
		r, c := pathStyle(p.State)
		dst.DrawLine(a, b, r, c)
	}

	for _, s := range stages {
		if !s.Visible {
			continue
		}
		p := l.pos[s.ID]
		glyph, color := stageGlyph(s)
		dst.SetColor(p.X, p.Y, glyph, color)
		if s.ID == selected {
			dst.SetColor(p.X-1, p.Y, '[', core.ColorBrightWhite)
			dst.SetColor(p.X+1, p.Y, ']', core.ColorBrightWhite)
		} else {
			dst.SetColor(p.X-1, p.Y, ' ', core.ColorDefault)
			dst.SetColor(p.X+1, p.Y, ' ', core.ColorDefault)
		}

		label := []rune(s.Label)
		if len(label) == 0 {
			label = []rune(s.ID)
		}
		if w := l.colW - 1; w > 0 && len(label) > w {
			label = label[:w]
		}
		labelColor := core.ColorDefault
		if s.ID == selected {
			labelColor = core.ColorBrightWhite
		}
		dst.DrawTextColor(p.X-len(label)/2, p.Y+1, string(label), labelColor)
	}
}
