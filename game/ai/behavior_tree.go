package ai

// Status is the result of ticking a node.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusRunning:
		return "running"
	}
	return "unknown"
}

// Node is one node of a behavior tree.
type Node interface {
	Tick(ctx *AIContext) Status
}

// Selector returns the first child result that is not a failure.
type Selector struct {
	Children []Node
}

func (s *Selector) Tick(ctx *AIContext) Status {
	for _, c := range s.Children {
		if st := c.Tick(ctx); st != StatusFailure {
			return st
		}
	}
	return StatusFailure
}

// Sequence runs children in order until one does not succeed.
type Sequence struct {
	Children []Node
}

func (s *Sequence) Tick(ctx *AIContext) Status {
	for _, c := range s.Children {
		if st := c.Tick(ctx); st != StatusSuccess {
			return st
		}
	}
	return StatusSuccess
}

// Condition succeeds when Fn holds.
type Condition struct {
	Fn func(*AIContext) bool
}

func (c *Condition) Tick(ctx *AIContext) Status {
	if c.Fn(ctx) {
		return StatusSuccess
	}
	return StatusFailure
}

// Action runs Fn and returns its status.
type Action struct {
	Fn func(*AIContext) Status
}

func (a *Action) Tick(ctx *AIContext) Status {
	return a.Fn(ctx)
}

// Inverter swaps success and failure of its child.
type Inverter struct {
	Child Node
}

func (i *Inverter) Tick(ctx *AIContext) Status {
	switch i.Child.Tick(ctx) {
	case StatusSuccess:
		return StatusFailure
	case StatusFailure:
		return StatusSuccess
	default:
		return StatusRunning
	}
}

// BehaviorTree wraps the root node.
type BehaviorTree struct {
	Root Node
}

// Tick runs one frame of the tree.
func (bt *BehaviorTree) Tick(ctx *AIContext) Status {
	if bt.Root == nil {
		return StatusFailure
	}
	return bt.Root.Tick(ctx)
}
