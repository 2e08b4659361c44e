package goap

import (
	"sort"

	"go.uber.org/zap"
)

// Options tunes the planner's search bounds and goal ordering.
type Options struct {
	// MaxDepth bounds plan length; a branch still needing beliefs at this depth fails.
	MaxDepth int
	// MaxNodes bounds the search arena per goal.
	MaxNodes int
	// RecentGoalPenalty is subtracted from the most recently completed goal's
	// priority when ordering goals.
	RecentGoalPenalty float64
	// Exhaustive explores every successful branch and returns the cheapest,
	// instead of accepting the first successful branch at each node.
	Exhaustive bool
}

// DefaultOptions returns the planner defaults.
func DefaultOptions() Options {
	return Options{
		MaxDepth:          16,
		MaxNodes:          4096,
		RecentGoalPenalty: 0.01,
	}
}

// Planner performs backward-chaining regression search from a goal's desired
// effects toward beliefs that already hold.
//
// Planner holds no per-call state and is safe for concurrent use, provided the
// beliefs it evaluates are not mutated during a call.
type Planner struct {
	opts   Options
	logger *zap.Logger
}

// NewPlanner constructs a Planner. Non-positive bounds fall back to defaults.
//
// Precondition: logger must not be nil.
func NewPlanner(opts Options, logger *zap.Logger) *Planner {
	if logger == nil {
		panic("goap.NewPlanner: logger must not be nil")
	}
	def := DefaultOptions()
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = def.MaxNodes
	}
	if opts.RecentGoalPenalty < 0 {
		opts.RecentGoalPenalty = 0
	}
	return &Planner{opts: opts, logger: logger}
}

// Options returns the effective options.
func (p *Planner) Options() Options { return p.opts }

// Plan selects the highest-priority unsatisfied goal in goals for which a path
// exists over actions, and returns the plan for it.
//
// mostRecent may be nil; when set, its priority is lowered by
// RecentGoalPenalty so that near-ties favour switching to a different goal.
//
// Postcondition: returns a plan with at least one action, or ErrNoPlan.
// A goal whose search exceeds MaxNodes without a result is skipped.
func (p *Planner) Plan(actions []*Action, goals []*Goal, mostRecent *Goal) (*Plan, error) {
	ordered := p.orderGoals(goals, mostRecent)
	byCost := make([]*Action, 0, len(actions))
	for _, a := range actions {
		if a != nil {
			byCost = append(byCost, a)
		}
	}
	sort.SliceStable(byCost, func(i, j int) bool { return byCost[i].cost < byCost[j].cost })

	for _, goal := range ordered {
		s := &search{opts: p.opts, actions: byCost}
		root := s.add(node{parent: -1, required: goal.desired})
		found, err := s.findPath(root, 0)
		if s.truncated {
			p.logger.Warn("goap: search limit reached",
				zap.String("goal", goal.name),
				zap.Int("nodes", len(s.nodes)),
				zap.Bool("found", found),
			)
		}
		if err != nil {
			// ErrSearchLimit: treated like an unreachable goal.
			continue
		}
		if !found || s.dead(root) {
			p.logger.Debug("goap: goal unreachable", zap.String("goal", goal.name))
			continue
		}
		plan := s.reconstruct(root, goal)
		p.logger.Debug("goap: plan found",
			zap.String("goal", goal.name),
			zap.Strings("actions", plan.ActionNames()),
			zap.Float64("cost", plan.cost),
			zap.Int("nodes", len(s.nodes)),
		)
		return plan, nil
	}
	return nil, ErrNoPlan
}

// orderGoals drops nil, disabled, and already-satisfied goals and orders the
// rest by descending effective priority; ties keep input order.
func (p *Planner) orderGoals(goals []*Goal, mostRecent *Goal) []*Goal {
	type ranked struct {
		goal     *Goal
		priority float64
	}
	var rs []ranked
	for _, g := range goals {
		if g == nil || !g.Enabled() || g.Satisfied() {
			continue
		}
		pr := g.priority
		if g == mostRecent {
			pr -= p.opts.RecentGoalPenalty
		}
		rs = append(rs, ranked{goal: g, priority: pr})
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].priority > rs[j].priority })
	out := make([]*Goal, len(rs))
	for i, r := range rs {
		out[i] = r.goal
	}
	return out
}

// node is one step of the regression. Nodes live in search.nodes and refer to
// each other by index.
type node struct {
	parent   int
	action   *Action // nil only at the root
	required beliefSet
	key      string
	cost     float64
	leaves   []int
	best     float64
}

type search struct {
	opts      Options
	actions   []*Action
	nodes     []node
	truncated bool
}

func (s *search) add(n node) int {
	n.key = n.required.key()
	s.nodes = append(s.nodes, n)
	return len(s.nodes) - 1
}

// dead reports a node with neither an action nor successful continuations.
func (s *search) dead(h int) bool {
	return s.nodes[h].action == nil && len(s.nodes[h].leaves) == 0
}

// onPath reports whether key is the required set of h or any of its ancestors.
func (s *search) onPath(h int, key string) bool {
	for ; h >= 0; h = s.nodes[h].parent {
		if s.nodes[h].key == key {
			return true
		}
	}
	return false
}

// findPath succeeds when every belief still required at h can be brought about
// by a chain of actions ending in beliefs that already hold. Each child carries
// all of h's outstanding requirements, so one successful child discharges h.
func (s *search) findPath(h, depth int) (bool, error) {
	required := s.nodes[h].required.unmet()
	s.nodes[h].required = required
	if len(required) == 0 {
		return true, nil
	}
	if depth >= s.opts.MaxDepth {
		return false, nil
	}

	for _, a := range s.actions {
		if s.truncated {
			break
		}
		if !required.intersects(a.effects) {
			continue
		}
		childReq := required.minus(a.effects).union(a.preconditions.unmet())
		if s.onPath(h, childReq.key()) {
			continue
		}
		if len(s.nodes) >= s.opts.MaxNodes {
			s.truncated = true
			break
		}
		child := s.add(node{
			parent:   h,
			action:   a,
			required: childReq,
			cost:     s.nodes[h].cost + a.cost,
		})
		ok, err := s.findPath(child, depth+1)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		s.nodes[h].leaves = append(s.nodes[h].leaves, child)
		if !s.opts.Exhaustive {
			return true, nil
		}
	}

	if len(s.nodes[h].leaves) > 0 {
		return true, nil
	}
	if s.truncated && h == 0 {
		return false, ErrSearchLimit
	}
	return false, nil
}

// settle computes, bottom-up, the cheapest total cost reachable through h.
func (s *search) settle(h int) float64 {
	n := &s.nodes[h]
	if len(n.leaves) == 0 {
		n.best = n.cost
		return n.best
	}
	best := 0.0
	for i, l := range n.leaves {
		c := s.settle(l)
		if i == 0 || c < best {
			best = c
		}
	}
	s.nodes[h].best = best
	return best
}

// reconstruct descends from root along the cheapest leaf at each node. The
// node nearest the goal is found first, so the collected actions are reversed:
// the deepest action, whose preconditions hold now, runs first.
func (s *search) reconstruct(root int, goal *Goal) *Plan {
	s.settle(root)
	var descent []*Action
	h := root
	for len(s.nodes[h].leaves) > 0 {
		next := s.nodes[h].leaves[0]
		for _, l := range s.nodes[h].leaves[1:] {
			if s.nodes[l].best < s.nodes[next].best {
				next = l
			}
		}
		h = next
		descent = append(descent, s.nodes[h].action)
	}
	actions := make([]*Action, len(descent))
	for i, a := range descent {
		actions[len(descent)-1-i] = a
	}
	return &Plan{goal: goal, actions: actions, cost: s.nodes[h].cost}
}
