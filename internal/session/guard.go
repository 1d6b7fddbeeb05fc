package session

import "sync"

// Views a live session can show
const (
	ViewDashboard = "dashboard"
	ViewTable     = "table"
	ViewDatasets  = "datasets"
)

// Selection is everything that identifies one fetch. Two equal selections
// would return the same data.
type Selection struct {
	View     string `json:"view"`
	Days     int    `json:"days"`
	Dataset  string `json:"dataset,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"pageSize,omitempty"`
}

// State of a Guard
type State int

const (
	Idle State = iota
	Fetching
	Fetched
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Fetched:
		return "fetched"
	default:
		return "idle"
	}
}

// Outcome of TryBeginFetch
type Outcome int

const (
	Granted Outcome = iota
	AlreadyFetching
	AlreadyFetched
)

func (o Outcome) String() string {
	switch o {
	case AlreadyFetching:
		return "already_fetching"
	case AlreadyFetched:
		return "already_fetched"
	default:
		return "granted"
	}
}

// Ticket identifies a granted fetch. Finish and Discard only act on the
// ticket of the current generation.
type Ticket struct {
	Selection  Selection
	generation uint64
}

// Guard allows at most one fetch in flight and skips a fetch for the
// selection that is already loaded. It never holds results.
// ⭐ SSOT: 세션 단위 fetch 가드 (전역 싱글톤 아님)
type Guard struct {
	mu         sync.Mutex
	state      State
	selection  Selection
	generation uint64
}

// NewGuard returns an idle guard
func NewGuard() *Guard {
	return &Guard{}
}

// TryBeginFetch grants a fetch for sel unless one is in flight or sel is
// already loaded
func (g *Guard) TryBeginFetch(sel Selection) (Outcome, Ticket) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case g.state == Fetching:
		return AlreadyFetching, Ticket{Selection: g.selection, generation: g.generation}
	case g.state == Fetched && g.selection == sel:
		return AlreadyFetched, Ticket{Selection: g.selection, generation: g.generation}
	}

	g.generation++
	g.state = Fetching
	g.selection = sel
	return Granted, Ticket{Selection: sel, generation: g.generation}
}

// Finish completes t: Fetched on success, Idle on failure. It returns false
// when t is stale (invalidated or superseded) and leaves the state alone.
func (g *Guard) Finish(t Ticket, err error) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if t.generation != g.generation || g.state != Fetching {
		return false
	}
	if err != nil {
		g.state = Idle
		return true
	}
	g.state = Fetched
	return true
}

// Discard drops t without loading anything
func (g *Guard) Discard(t Ticket) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if t.generation == g.generation && g.state == Fetching {
		g.state = Idle
	}
}

// Invalidate resets to Idle unconditionally; in-flight tickets become stale
func (g *Guard) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.generation++
	g.state = Idle
	g.selection = Selection{}
}

// Snapshot returns the current state and selection
func (g *Guard) Snapshot() (State, Selection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.selection
}
