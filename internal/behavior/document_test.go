package behavior_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/goap/internal/behavior"
	"github.com/cory-johannsen/goap/internal/goap"
)

const minimalYAML = `
behavior:
  id: guard
  beliefs:
    - name: Rested
      kind: constant
      value: false
    - name: Near
      kind: location
      position: {x: 1, y: 2}
      radius: 2
  actions:
    - name: Walk
      cost: 2
      effects: [Near]
      strategy:
        kind: move
        position: {x: 1, y: 2}
    - name: Sleep
      preconditions: [Near]
      effects: [Rested]
      strategy:
        kind: idle
        duration: 3s
  goals:
    - name: Rest
      priority: 1
      desired: [Rested]
`

func minimalDoc() *behavior.Document {
	return &behavior.Document{
		ID:      "d",
		Beliefs: []*behavior.BeliefSpec{{Name: "A", Kind: behavior.BeliefConstant}},
		Actions: []*behavior.ActionSpec{{
			Name:     "act",
			Effects:  []string{"A"},
			Strategy: behavior.StrategySpec{Kind: behavior.StrategyInstant},
		}},
		Goals: []*behavior.GoalSpec{{Name: "g", Desired: []string{"A"}}},
	}
}

func TestParse_Minimal(t *testing.T) {
	doc, err := behavior.Parse([]byte(minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "guard", doc.ID)
	require.Len(t, doc.Beliefs, 2)
	assert.Equal(t, &goap.Position{X: 1, Y: 2}, doc.Beliefs[1].Position)
	require.Len(t, doc.Actions, 2)
	require.NotNil(t, doc.Actions[0].Cost)
	assert.Equal(t, 2.0, *doc.Actions[0].Cost)
	assert.Nil(t, doc.Actions[1].Cost, "omitted cost stays unset")
	assert.Equal(t, "3s", doc.Actions[1].Strategy.Duration)
	assert.Equal(t, []string{"Rested"}, doc.Goals[0].Desired)
}

func TestParse_ExplicitZeroCost(t *testing.T) {
	doc, err := behavior.Parse([]byte(`
behavior:
  id: free
  beliefs:
    - {name: A, kind: constant}
  actions:
    - {name: act, cost: 0, effects: [A], strategy: {kind: instant}}
  goals:
    - {name: g, desired: [A]}
`))
	require.NoError(t, err)
	require.NotNil(t, doc.Actions[0].Cost)
	assert.Zero(t, *doc.Actions[0].Cost)
}

func TestParse_MissingTopLevelKey(t *testing.T) {
	_, err := behavior.Parse([]byte("id: nope\n"))
	assert.ErrorContains(t, err, "behavior")
}

func TestParse_Malformed(t *testing.T) {
	_, err := behavior.Parse([]byte("behavior: [unclosed"))
	assert.Error(t, err)
}

func TestValidate_AcceptsMinimal(t *testing.T) {
	assert.NoError(t, minimalDoc().Validate())
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(d *behavior.Document){
		"empty id":        func(d *behavior.Document) { d.ID = "" },
		"no goals":        func(d *behavior.Document) { d.Goals = nil },
		"empty belief":    func(d *behavior.Document) { d.Beliefs = append(d.Beliefs, &behavior.BeliefSpec{Kind: "constant"}) },
		"dup belief":      func(d *behavior.Document) { d.Beliefs = append(d.Beliefs, d.Beliefs[0]) },
		"bad belief kind": func(d *behavior.Document) { d.Beliefs[0].Kind = "psychic" },
		"script no hook":  func(d *behavior.Document) { d.Beliefs[0].Kind = behavior.BeliefScript },
		"sensor no name":  func(d *behavior.Document) { d.Beliefs[0].Kind = behavior.BeliefSensor },
		"fact no name":    func(d *behavior.Document) { d.Beliefs[0].Kind = behavior.BeliefFact },
		"expr empty":      func(d *behavior.Document) { d.Beliefs[0].Kind = behavior.BeliefExpr },
		"expr syntax": func(d *behavior.Document) {
			d.Beliefs[0] = &behavior.BeliefSpec{Name: "A", Kind: behavior.BeliefExpr, Expr: "hp <"}
		},
		"location neither": func(d *behavior.Document) {
			d.Beliefs[0] = &behavior.BeliefSpec{Name: "A", Kind: behavior.BeliefLocation, Radius: 1}
		},
		"location both": func(d *behavior.Document) {
			d.Beliefs[0] = &behavior.BeliefSpec{Name: "A", Kind: behavior.BeliefLocation, Radius: 1, Location: "x", Position: &goap.Position{}}
		},
		"location radius": func(d *behavior.Document) {
			d.Beliefs[0] = &behavior.BeliefSpec{Name: "A", Kind: behavior.BeliefLocation, Location: "x"}
		},
		"empty action":    func(d *behavior.Document) { d.Actions[0].Name = "" },
		"dup action":      func(d *behavior.Document) { d.Actions = append(d.Actions, d.Actions[0]) },
		"negative cost":   func(d *behavior.Document) { d.Actions[0].Cost = goap.Cost(-1) },
		"unknown effect":  func(d *behavior.Document) { d.Actions[0].Effects = []string{"B"} },
		"unknown precond": func(d *behavior.Document) { d.Actions[0].Preconditions = []string{"B"} },
		"empty strategy":  func(d *behavior.Document) { d.Actions[0].Strategy.Kind = "" },
		"bad strategy":    func(d *behavior.Document) { d.Actions[0].Strategy.Kind = "teleport" },
		"cast bad delay": func(d *behavior.Document) {
			d.Actions[0].Strategy = behavior.StrategySpec{Kind: behavior.StrategyCast, Duration: "1s", Delay: "soon"}
		},
		"cast negative delay": func(d *behavior.Document) {
			d.Actions[0].Strategy = behavior.StrategySpec{Kind: behavior.StrategyCast, Duration: "1s", Delay: "-1s"}
		},
		"drop no destination": func(d *behavior.Document) {
			d.Actions[0].Strategy = behavior.StrategySpec{Kind: behavior.StrategyDrop}
		},
		"drop negative speed": func(d *behavior.Document) {
			d.Actions[0].Strategy = behavior.StrategySpec{Kind: behavior.StrategyDrop, Position: &goap.Position{}, Speed: -1}
		},
		"bad duration":      func(d *behavior.Document) { d.Actions[0].Strategy.Duration = "soon" },
		"negative duration": func(d *behavior.Document) { d.Actions[0].Strategy.Duration = "-1s" },
		"move no dest":      func(d *behavior.Document) { d.Actions[0].Strategy.Kind = behavior.StrategyMove },
		"move two dests": func(d *behavior.Document) {
			d.Actions[0].Strategy = behavior.StrategySpec{Kind: behavior.StrategyMove, Location: "x", Belief: "A"}
		},
		"move unknown belief": func(d *behavior.Document) {
			d.Actions[0].Strategy = behavior.StrategySpec{Kind: behavior.StrategyMove, Belief: "B"}
		},
		"wander radius":  func(d *behavior.Document) { d.Actions[0].Strategy.Kind = behavior.StrategyWander },
		"attack sensor":  func(d *behavior.Document) { d.Actions[0].Strategy.Kind = behavior.StrategyAttack },
		"channel dest":   func(d *behavior.Document) { d.Actions[0].Strategy.Kind = behavior.StrategyChannel },
		"empty goal":     func(d *behavior.Document) { d.Goals[0].Name = "" },
		"dup goal":       func(d *behavior.Document) { d.Goals = append(d.Goals, d.Goals[0]) },
		"goal no desire": func(d *behavior.Document) { d.Goals[0].Desired = nil },
		"goal unknown":   func(d *behavior.Document) { d.Goals[0].Desired = []string{"B"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := minimalDoc()
			mutate(d)
			assert.Error(t, d.Validate())
		})
	}
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadDocuments_KeysByIDAndSkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "guard.yaml", minimalYAML)
	writeFile(t, dir, "notes.txt", "not yaml")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

	docs, err := behavior.LoadDocuments(dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs, "guard")
}

func TestLoadDocuments_DuplicateID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", minimalYAML)
	writeFile(t, dir, "b.yaml", minimalYAML)
	_, err := behavior.LoadDocuments(dir)
	assert.ErrorContains(t, err, "duplicate behavior ID")
}

func TestLoadDocuments_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "behavior:\n  id: x\n")
	_, err := behavior.LoadDocuments(dir)
	assert.ErrorContains(t, err, "bad.yaml")
}

func TestLoadDocuments_MissingDir(t *testing.T) {
	_, err := behavior.LoadDocuments(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestValidate_ReferencesProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "beliefs")
		d := &behavior.Document{ID: "p"}
		for i := 0; i < n; i++ {
			d.Beliefs = append(d.Beliefs, &behavior.BeliefSpec{Name: fmt.Sprintf("b%d", i), Kind: behavior.BeliefConstant})
		}
		ref := func(label string) string {
			return fmt.Sprintf("b%d", rapid.IntRange(0, n-1).Draw(rt, label))
		}
		actions := rapid.IntRange(0, 6).Draw(rt, "actions")
		for i := 0; i < actions; i++ {
			d.Actions = append(d.Actions, &behavior.ActionSpec{
				Name:          fmt.Sprintf("a%d", i),
				Cost:          goap.Cost(rapid.Float64Range(0, 10).Draw(rt, "cost")),
				Preconditions: []string{ref("pre")},
				Effects:       []string{ref("eff")},
				Strategy:      behavior.StrategySpec{Kind: behavior.StrategyInstant},
			})
		}
		d.Goals = []*behavior.GoalSpec{{Name: "g", Desired: []string{ref("goal")}}}
		if err := d.Validate(); err != nil {
			rt.Fatalf("declared references rejected: %v", err)
		}

		d.Goals[0].Desired = append(d.Goals[0].Desired, "undeclared")
		if d.Validate() == nil {
			rt.Fatal("undeclared reference accepted")
		}
	})
}
