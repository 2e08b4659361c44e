package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GOAP_LOGGING_LEVEL", "error")
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{
		"--config=",
		"--behaviors=../../content/behaviors",
		"--scripts=../../content/scripts",
	}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidateCmd_ReportsEveryBehavior(t *testing.T) {
	out, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "ok mechromancer beliefs=13 actions=8 goals=5")
}

func TestValidateCmd_BadBehaviorDir(t *testing.T) {
	_, err := execute(t, "validate", "--behaviors", t.TempDir()+"/absent")
	assert.Error(t, err)
}

func TestPlanCmd_PrintsFirstPlan(t *testing.T) {
	out, err := execute(t, "plan")
	require.NoError(t, err)
	assert.Contains(t, out, "goal: Resurrect")
	assert.Contains(t, out, "1. Move To Hiding Position (running)")
	assert.Contains(t, out, "2. Resurrect Robots")
}

func TestPlanCmd_UnknownBehavior(t *testing.T) {
	_, err := execute(t, "plan", "--behavior", "nobody")
	assert.ErrorContains(t, err, "nobody")
}

func TestRunCmd_StopsAfterDuration(t *testing.T) {
	_, err := execute(t, "run", "--agents", "2", "--duration", "300ms")
	assert.NoError(t, err)
}

func TestOptions_Overrides(t *testing.T) {
	opts := &options{behaviorDir: "b", scriptDir: "s", behaviorID: "x", agents: 7}
	cfg, err := opts.load()
	require.NoError(t, err)
	assert.Equal(t, "b", cfg.Content.BehaviorDir)
	assert.Equal(t, "s", cfg.Content.ScriptDir)
	assert.Equal(t, "x", cfg.Sim.Behavior)
	assert.Equal(t, 7, cfg.Sim.Agents)
}
