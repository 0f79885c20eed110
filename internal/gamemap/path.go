package gamemap

// PathState mirrors the clear status of a path's endpoints.
type PathState int

const (
	PathLocked  PathState = iota // Neither endpoint is open
	PathOpen                     // At least one endpoint is open
	PathCleared                  // At least one endpoint is cleared
	PathSealed                   // The session ended in a seal
)

func (p PathState) String() string {
	switch p {
	case PathLocked:
		return "locked"
	case PathOpen:
		return "open"
	case PathCleared:
		return "cleared"
	case PathSealed:
		return "sealed"
	default:
		return "unknown"
	}
}

// Path is an undirected edge between two stages.
// Its state is derived from the endpoints; visibility is a separate axis.
type Path struct {
	key     PathKey
	state   PathState
	visible bool
}

// Key returns the endpoints of the path.
func (p *Path) Key() PathKey { return p.key }

// State returns the derived state.
func (p *Path) State() PathState { return p.state }

// Visible reports whether fog rules reveal the path.
func (p *Path) Visible() bool { return p.visible }

// derivePathState computes a path's state from its endpoints.
func derivePathState(a, b *Stage) PathState {
	if a.state == StageSealed || b.state == StageSealed {
		return PathSealed
	}
	return styleFor(a.state, b.state)
}

// styleFor applies the clear/open styling rules to two endpoint states.
func styleFor(a, b StageState) PathState {
	switch {
	case a == StageCleared || b == StageCleared:
		return PathCleared
	case a.IsOpen() || b.IsOpen():
		return PathOpen
	default:
		return PathLocked
	}
}

// stageVisible applies fog rules to a reachable stage.
func stageVisible(fog FogMode, s *Stage, neighbours []*Stage) bool {
	eff := s.effective()
	switch fog {
	case FogAll:
		return true
	case FogAdjacent:
		if eff.IsOpen() || eff == StageUnlocking {
			return true
		}
		for _, n := range neighbours {
			if n.effective().IsOpen() {
				return true
			}
		}
		return false
	case FogNone:
		return eff.IsOpen() || eff == StageUnlocking
	}
	return false
}

// pathVisible applies fog rules to a path whose endpoints are both reachable.
func pathVisible(fog FogMode, a, b *Stage) bool {
	switch fog {
	case FogAll:
		return true
	case FogAdjacent:
		return a.effective().IsOpen() || b.effective().IsOpen()
	case FogNone:
		return a.visible && b.visible
	}
	return false
}
