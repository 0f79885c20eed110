package gamemap

import (
	"github.com/zyedidia/generic/mapset"
)

// Rand is the source of pseudo-random choices. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// PathKey identifies the single path between two neighbouring stages.
// From is the stage that appears first in the map configuration.
type PathKey struct {
	From string
	To   string
}

// Has reports whether the path touches the given stage.
func (k PathKey) Has(id string) bool {
	return k.From == id || k.To == id
}

// Other returns the endpoint opposite id.
func (k PathKey) Other(id string) string {
	if k.From == id {
		return k.To
	}
	return k.From
}

// Graph is the static adjacency model of a map. It holds no mutable state.
type Graph struct {
	order     []string
	index     map[string]int
	neighbors map[string][]string
	paths     []PathKey
}

// NewGraph builds the symmetric closure of the neighbour relation, with one
// path per unordered pair. Unknown neighbour ids are skipped; Validate reports them.
func NewGraph(stages []StageConfig) *Graph {
	g := &Graph{
		order:     make([]string, 0, len(stages)),
		index:     make(map[string]int, len(stages)),
		neighbors: make(map[string][]string, len(stages)),
	}
	for _, s := range stages {
		if _, dup := g.index[s.ID]; dup {
			continue
		}
		g.index[s.ID] = len(g.order)
		g.order = append(g.order, s.ID)
	}

	seen := make(map[PathKey]bool)
	for _, s := range stages {
		for _, n := range s.Neighbors {
			if _, ok := g.index[n]; !ok || n == s.ID {
				continue
			}
			key := g.key(s.ID, n)
			if seen[key] {
				continue
			}
			seen[key] = true
			g.paths = append(g.paths, key)
			g.neighbors[key.From] = append(g.neighbors[key.From], key.To)
			g.neighbors[key.To] = append(g.neighbors[key.To], key.From)
		}
	}
	return g
}

// key orders a pair by configuration position.
func (g *Graph) key(a, b string) PathKey {
	if g.index[a] <= g.index[b] {
		return PathKey{From: a, To: b}
	}
	return PathKey{From: b, To: a}
}

// Has reports whether the stage exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// StageIDs returns every stage id in configuration order.
func (g *Graph) StageIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Neighbors returns the ids adjacent to a stage.
func (g *Graph) Neighbors(id string) []string {
	return g.neighbors[id]
}

// Paths returns every path in the order it was first declared.
func (g *Graph) Paths() []PathKey {
	out := make([]PathKey, len(g.paths))
	copy(out, g.paths)
	return out
}

// PathBetween returns the key for two stages if they are neighbours.
func (g *Graph) PathBetween(a, b string) (PathKey, bool) {
	key := g.key(a, b)
	for _, n := range g.neighbors[key.From] {
		if n == key.To {
			return key, true
		}
	}
	return PathKey{}, false
}

// GatherReachable returns every stage transitively connected to startIDs.
func (g *Graph) GatherReachable(startIDs ...string) mapset.Set[string] {
	reachable := mapset.New[string]()
	queue := make([]string, 0, len(startIDs))
	for _, id := range startIDs {
		if g.Has(id) {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if reachable.Has(current) {
			continue
		}
		reachable.Put(current)

		for _, n := range g.neighbors[current] {
			if !reachable.Has(n) {
				queue = append(queue, n)
			}
		}
	}
	return reachable
}

// StartCandidates returns the stages eligible to begin a session: every stage
// flagged as a start stage, or every normal stage when none is flagged.
func StartCandidates(stages []StageConfig) []string {
	var flagged, normal []string
	for _, s := range stages {
		if s.CanBeStart {
			flagged = append(flagged, s.ID)
		}
		if s.Kind == KindNormal || (s.Kind == "" && s.Special == SpecialNone) {
			normal = append(normal, s.ID)
		}
	}
	if len(flagged) > 0 {
		return flagged
	}
	return normal
}

// SelectStart picks the entry point for a session. With several candidates
// one is chosen with rnd, so disconnected sub-maps stay out of play.
func SelectStart(stages []StageConfig, rnd Rand) []string {
	candidates := StartCandidates(stages)
	if len(candidates) <= 1 || rnd == nil {
		if len(candidates) > 1 {
			return candidates[:1]
		}
		return candidates
	}
	return []string{candidates[rnd.Intn(len(candidates))]}
}

// Reachability tracks the stages in play for the current session.
type Reachability struct {
	graph *Graph
	set   mapset.Set[string]
}

// NewReachability creates an empty resolver over g.
func NewReachability(g *Graph) *Reachability {
	return &Reachability{graph: g, set: mapset.New[string]()}
}

// Recompute replaces the reachable set with everything connected to seeds.
func (r *Reachability) Recompute(seeds ...string) {
	r.set = r.graph.GatherReachable(seeds...)
}

// Contains reports whether a stage is in play.
func (r *Reachability) Contains(id string) bool {
	return r.set.Has(id)
}

// ContainsPath reports whether both endpoints of a path are in play.
func (r *Reachability) ContainsPath(k PathKey) bool {
	return r.set.Has(k.From) && r.set.Has(k.To)
}

// Stages returns the reachable stage ids in configuration order.
func (r *Reachability) Stages() []string {
	var out []string
	for _, id := range r.graph.order {
		if r.set.Has(id) {
			out = append(out, id)
		}
	}
	return out
}
