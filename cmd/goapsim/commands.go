package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/cory-johannsen/goap/internal/behavior"
	"github.com/cory-johannsen/goap/internal/config"
	"github.com/cory-johannsen/goap/internal/dice"
	"github.com/cory-johannsen/goap/internal/goap"
	"github.com/cory-johannsen/goap/internal/observability"
	"github.com/cory-johannsen/goap/internal/scheduler"
	"github.com/cory-johannsen/goap/internal/scripting"
	"github.com/cory-johannsen/goap/internal/server"
	"github.com/cory-johannsen/goap/internal/sim"
)

// options holds flags that override the loaded configuration.
type options struct {
	configPath  string
	behaviorDir string
	scriptDir   string
	behaviorID  string
	agents      int
	duration    time.Duration
}

// load reads the configuration and applies flag overrides.
func (o *options) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if o.behaviorDir != "" {
		cfg.Content.BehaviorDir = o.behaviorDir
	}
	if o.scriptDir != "" {
		cfg.Content.ScriptDir = o.scriptDir
	}
	if o.behaviorID != "" {
		cfg.Sim.Behavior = o.behaviorID
	}
	if o.agents > 0 {
		cfg.Sim.Agents = o.agents
	}
	if o.duration > 0 {
		cfg.Sim.Duration = o.duration
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "goapsim",
		Short:         "Run GOAP agents from declarative behaviors in a headless world",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "configs/dev.yaml", "path to configuration file; empty = defaults and environment only")
	root.PersistentFlags().StringVar(&opts.behaviorDir, "behaviors", "", "behavior YAML directory (overrides content.behavior_dir)")
	root.PersistentFlags().StringVar(&opts.scriptDir, "scripts", "", "Lua script directory (overrides content.script_dir)")
	root.PersistentFlags().StringVar(&opts.behaviorID, "behavior", "", "behavior to run (overrides sim.behavior)")

	root.AddCommand(
		newRunCmd(opts),
		newValidateCmd(opts),
		newPlanCmd(opts),
	)
	return root
}

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation until interrupted or sim.duration elapses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runSim(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVar(&opts.agents, "agents", 0, "number of agents (overrides sim.agents)")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "simulated run length, counted in ticks (overrides sim.duration)")
	return cmd
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load every behavior and bind it against a scratch world",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger, err := observability.NewLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer logger.Sync()

			docs, err := behavior.LoadDocuments(cfg.Content.BehaviorDir)
			if err != nil {
				return err
			}
			ids := sortedIDs(docs)
			scripts := scripting.NewManager(logger)
			defer scripts.Close()
			planner := goap.NewPlanner(plannerOptions(cfg.Planner), logger)
			for _, id := range ids {
				s, err := spawnAgent(cfg, docs[id], scripts, planner, dice.NewSeededSource(1), logger)
				if err != nil {
					return fmt.Errorf("behavior %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok %s beliefs=%d actions=%d goals=%d\n",
					id, len(s.agent.Beliefs()), len(s.agent.Actions()), len(s.agent.Goals()))
				s.cancel()
			}
			return nil
		},
	}
}

func newPlanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the plan a fresh agent adopts on its first tick",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger, err := observability.NewLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer logger.Sync()

			doc, err := loadBehavior(cfg)
			if err != nil {
				return err
			}
			scripts := scripting.NewManager(logger)
			defer scripts.Close()
			planner := goap.NewPlanner(plannerOptions(cfg.Planner), logger)
			s, err := spawnAgent(cfg, doc, scripts, planner, sourceFor(cfg.Sim.Seed, 0), logger)
			if err != nil {
				return err
			}
			defer s.cancel()
			if err := s.Tick(cfg.Scheduler.TickInterval); err != nil {
				return err
			}
			plan := s.agent.CurrentPlan()
			out := cmd.OutOrStdout()
			if s.agent.CurrentGoal() == nil {
				fmt.Fprintln(out, "no plan")
				return nil
			}
			fmt.Fprintf(out, "goal: %s\n", s.agent.CurrentGoal().Name())
			if act := s.agent.CurrentAction(); act != nil {
				fmt.Fprintf(out, "  1. %s (running)\n", act.Name())
			}
			if plan != nil {
				for i, name := range plan.ActionNames() {
					fmt.Fprintf(out, "  %d. %s\n", i+2, name)
				}
			}
			return nil
		},
	}
}

func loadBehavior(cfg config.Config) (*behavior.Document, error) {
	docs, err := behavior.LoadDocuments(cfg.Content.BehaviorDir)
	if err != nil {
		return nil, err
	}
	doc, ok := docs[cfg.Sim.Behavior]
	if !ok {
		return nil, fmt.Errorf("unknown behavior %q in %s", cfg.Sim.Behavior, cfg.Content.BehaviorDir)
	}
	return doc, nil
}

// runSim spawns the configured agents and ticks them under a Lifecycle.
func runSim(ctx context.Context, cfg config.Config) error {
	start := time.Now()

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	if undo, err := maxprocs.Set(maxprocs.Logger(logger.Sugar().Infof)); err != nil {
		logger.Warn("setting GOMAXPROCS", zap.Error(err))
	} else {
		defer undo()
	}

	doc, err := loadBehavior(cfg)
	if err != nil {
		return err
	}

	scripts := scripting.NewManager(logger)
	planner := goap.NewPlanner(plannerOptions(cfg.Planner), logger)

	var spawned []*simAgent
	for i := 0; i < cfg.Sim.Agents; i++ {
		s, err := spawnAgent(cfg, doc, scripts, planner, sourceFor(cfg.Sim.Seed, i), logger)
		if err != nil {
			scripts.Close()
			return fmt.Errorf("spawning agent %d: %w", i, err)
		}
		spawned = append(spawned, s)
	}

	ticks, err := scheduler.NewTickManager(cfg.Scheduler.TickInterval, cfg.Scheduler.Workers, logger)
	if err != nil {
		scripts.Close()
		return fmt.Errorf("creating tick manager: %w", err)
	}
	for _, s := range spawned {
		ticks.Register(s.agent.ID(), s)
	}
	stats := &statsReporter{interval: cfg.Sim.StatsInterval, agents: spawned, logger: logger}
	ticks.SetPreTick(stats.Observe)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("scripting", &server.FuncService{
		StartFn: func(ctx context.Context) error {
			if !cfg.Content.Watch {
				<-ctx.Done()
				return nil
			}
			return scripts.Watch(ctx, cfg.Content.ScriptDir)
		},
		StopFn: scripts.Close,
	})
	lifecycle.Add("scheduler", &server.FuncService{
		StartFn: func(ctx context.Context) error {
			ticks.Run(ctx)
			return nil
		},
		StopFn: func() {
			for _, s := range spawned {
				ticks.Unregister(s.agent.ID())
				s.agent.SetActive(false)
				s.cancel()
			}
			ticks.Release()
		},
	})
	if cfg.Sim.Duration > 0 {
		lifecycle.Add("timer", &server.FuncService{
			StartFn: func(ctx context.Context) error {
				waitSimulated(ctx, ticks, cfg.Scheduler.TickInterval, cfg.Sim.Duration)
				return nil
			},
		})
	}

	logger.Info("simulator initialized",
		zap.String("behavior", doc.ID),
		zap.Int("agents", len(spawned)),
		zap.Int("workers", ticks.Workers()),
		zap.Duration("tick", cfg.Scheduler.TickInterval),
		zap.Duration("duration", cfg.Sim.Duration),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		return err
	}
	for _, s := range spawned {
		logger.Info("agent finished",
			zap.String("agent", s.agent.ID()),
			zap.String("phase", string(s.agent.Phase())),
			zap.Int64("ticks", ticks.Ticks()),
			zap.Float64("health", s.world.Facts().Number(sim.FactHealth)),
			zap.Float64("hits", s.world.Facts().Number(sim.FactHits)),
		)
	}
	return nil
}

// waitSimulated returns once ticks has covered d of simulated time at
// interval per tick, or when ctx ends. A slow tick delays the deadline.
func waitSimulated(ctx context.Context, ticks interface{ Ticks() int64 }, interval, d time.Duration) {
	poll := time.NewTicker(interval)
	defer poll.Stop()
	for time.Duration(ticks.Ticks())*interval < d {
		select {
		case <-poll.C:
		case <-ctx.Done():
			return
		}
	}
}
