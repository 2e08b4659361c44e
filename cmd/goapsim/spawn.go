package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/goap/internal/agent"
	"github.com/cory-johannsen/goap/internal/behavior"
	"github.com/cory-johannsen/goap/internal/config"
	"github.com/cory-johannsen/goap/internal/dice"
	"github.com/cory-johannsen/goap/internal/goap"
	"github.com/cory-johannsen/goap/internal/observability"
	"github.com/cory-johannsen/goap/internal/scripting"
	"github.com/cory-johannsen/goap/internal/sim"
)

// Arena landmarks shared by every spawned agent.
var (
	restPosition   = goap.Position{X: -20}
	hidingPosition = goap.Position{X: 20, Y: -20}
)

// simAgent pairs an agent with the world it lives in.
type simAgent struct {
	agent  *agent.Agent
	world  *sim.World
	cancel func()
}

// Tick steps the world, which may fire sensor callbacks, then the agent.
func (s *simAgent) Tick(dt time.Duration) error {
	s.world.Step(dt)
	return s.agent.Tick(dt)
}

// sourceFor returns the dice source for the i-th agent: seeded runs are
// reproducible per agent, otherwise crypto randomness is used.
func sourceFor(seed uint64, i int) dice.Source {
	if seed == 0 {
		return dice.NewCryptoSource()
	}
	return dice.NewSeededSource(seed + uint64(i))
}

// spawnAgent builds one agent with its own world and Lua scope.
//
// Precondition: doc must be valid; scripts and planner must not be nil.
// Postcondition: the agent is subscribed to its chase sensor; the returned
// simAgent's cancel unsubscribes it and unloads its scope.
func spawnAgent(cfg config.Config, doc *behavior.Document, scripts *scripting.Manager, planner agent.Planner, src dice.Source, logger *zap.Logger) (*simAgent, error) {
	id := uuid.NewString()
	world := sim.NewWorld(sim.WorldConfig{
		Rest:          restPosition,
		Hiding:        hidingPosition,
		StatsInterval: cfg.Sim.StatsInterval,
		Source:        src,
	}, observability.ForAgent(logger, id))

	if err := scripts.LoadScope(id, cfg.Content.ScriptDir, cfg.Content.InstructionLimit, world.Facts()); err != nil {
		return nil, fmt.Errorf("loading scripts for %s: %w", id, err)
	}

	provider, err := behavior.NewProvider(doc, behavior.Environment{
		Navigator: world.Body(),
		Sensors:   world.Sensors(),
		Locations: world.Locations(),
		Scripts:   scripts,
		Scope:     id,
		Source:    src,
		Facts:     world.Facts(),
	}, logger)
	if err != nil {
		scripts.Unload(id)
		return nil, err
	}

	a, err := agent.New(agent.Config{
		ID:        id,
		Provider:  provider,
		Planner:   planner,
		Logger:    logger,
		Navigator: world.Body(),
	})
	if err != nil {
		scripts.Unload(id)
		return nil, err
	}

	chase, _ := world.Sensor(sim.SensorChase)
	unsubscribe := a.Subscribe(chase)
	return &simAgent{
		agent: a,
		world: world,
		cancel: func() {
			unsubscribe()
			scripts.Unload(id)
		},
	}, nil
}

// plannerOptions maps planner configuration onto search options.
func plannerOptions(cfg config.PlannerConfig) goap.Options {
	return goap.Options{
		MaxDepth:          cfg.MaxDepth,
		MaxNodes:          cfg.MaxNodes,
		RecentGoalPenalty: cfg.RecentGoalPenalty,
		Exhaustive:        cfg.Exhaustive,
	}
}

// statsReporter logs a per-agent snapshot every interval of simulated time.
type statsReporter struct {
	interval time.Duration
	elapsed  time.Duration
	agents   []*simAgent
	logger   *zap.Logger
}

// Observe accumulates dt and reports when a full interval has passed.
func (r *statsReporter) Observe(dt time.Duration) {
	r.elapsed += dt
	if r.elapsed < r.interval {
		return
	}
	r.elapsed -= r.interval
	for _, s := range r.agents {
		goal := ""
		if g := s.agent.CurrentGoal(); g != nil {
			goal = g.Name()
		}
		action := ""
		if act := s.agent.CurrentAction(); act != nil {
			action = act.Name()
		}
		facts := s.world.Facts()
		r.logger.Info("agent stats",
			zap.String("agent", s.agent.ID()),
			zap.String("phase", string(s.agent.Phase())),
			zap.String("goal", goal),
			zap.String("action", action),
			zap.Float64("health", facts.Number(sim.FactHealth)),
			zap.Float64("hits", facts.Number(sim.FactHits)),
		)
	}
}

func sortedIDs(docs map[string]*behavior.Document) []string {
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
