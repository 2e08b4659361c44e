package goap

// Plan is an ordered action sequence that satisfies Goal, consumed front to back.
type Plan struct {
	goal    *Goal
	actions []*Action
	cost    float64
}

// NewPlan builds a Plan. actions[0] is executed first.
func NewPlan(goal *Goal, actions []*Action, cost float64) *Plan {
	cp := make([]*Action, len(actions))
	copy(cp, actions)
	return &Plan{goal: goal, actions: cp, cost: cost}
}

// Goal returns the goal the plan satisfies.
func (p *Plan) Goal() *Goal { return p.goal }

// Cost returns the plan's total accumulated cost.
func (p *Plan) Cost() float64 { return p.cost }

// Remaining returns the number of actions not yet dispatched.
func (p *Plan) Remaining() int { return len(p.actions) }

// Peek returns the next action without consuming it.
func (p *Plan) Peek() (*Action, bool) {
	if len(p.actions) == 0 {
		return nil, false
	}
	return p.actions[0], true
}

// Next consumes and returns the next action.
func (p *Plan) Next() (*Action, bool) {
	a, ok := p.Peek()
	if ok {
		p.actions = p.actions[1:]
	}
	return a, ok
}

// Actions returns a copy of the remaining actions in execution order.
func (p *Plan) Actions() []*Action {
	out := make([]*Action, len(p.actions))
	copy(out, p.actions)
	return out
}

// ActionNames returns the names of the remaining actions in execution order.
func (p *Plan) ActionNames() []string {
	out := make([]string, len(p.actions))
	for i, a := range p.actions {
		out[i] = a.name
	}
	return out
}
