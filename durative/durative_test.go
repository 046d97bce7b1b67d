package durative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/duration"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/state"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/todo"
)

func TestConvertProducesMethodShape(t *testing.T) {
	a := Action{
		Name:     "fill_tank",
		Duration: duration.NewFixed(60),
		AtStart: []ConditionSpec{
			{Predicate: "at_pump", Subject: "car1", Value: true},
		},
		OverAll: []ConditionSpec{
			{Predicate: "engine_off", Subject: "car1", Value: true},
		},
		AtEnd: []ConditionSpec{
			{Predicate: "fuel", Subject: "car1", Value: "full"},
		},
		EffectsAtStart: []EffectSpec{{Predicate: "pumping", Subject: "car1", Value: true}},
		EffectsAtEnd:   []EffectSpec{{Predicate: "fuel", Subject: "car1", Value: "full"}, {Predicate: "pumping", Subject: "car1", Value: false}},
	}

	spec, method, monitor, err := Convert(a)
	require.NoError(t, err)
	require.Len(t, method, 3)

	g0, ok := method[0].AsGoal()
	require.True(t, ok)
	assert.Equal(t, "at_pump", g0.Predicate)

	task, ok := method[1].AsTask()
	require.True(t, ok)
	assert.Equal(t, "fill_tank", task.Name)

	g2, ok := method[2].AsGoal()
	require.True(t, ok)
	assert.Equal(t, "fuel", g2.Predicate)

	require.Len(t, monitor.Conditions, 1)
	assert.True(t, monitor.Check(state.New().Set("engine_off", "car1", true)))
	assert.False(t, monitor.Check(state.New().Set("engine_off", "car1", false)))

	// the simple action's effect applies the union of at_start/at_end
	// effects, matching what the original durative action would have done
	s, err := spec.Effect(state.New(), nil)
	require.NoError(t, err)
	v, ok := s.Get("fuel", "car1")
	require.True(t, ok)
	assert.Equal(t, "full", v)
	v, ok = s.Get("pumping", "car1")
	require.True(t, ok)
	assert.Equal(t, false, v)

	// the simple action's precondition is the over_all monitor: it holds
	// only while engine_off is true for car1
	assert.True(t, spec.Precondition(state.New().Set("engine_off", "car1", true), nil))
	assert.False(t, spec.Precondition(state.New(), nil))
}

func TestConvertRejectsDuplicateEffectTarget(t *testing.T) {
	a := Action{
		Name:         "bad",
		EffectsAtEnd: []EffectSpec{{Predicate: "p", Subject: "s", Value: 1}, {Predicate: "p", Subject: "s", Value: 2}},
	}
	_, _, _, err := Convert(a)
	assert.Error(t, err)
}

func TestConvertRequiresName(t *testing.T) {
	_, _, _, err := Convert(Action{})
	assert.Error(t, err)
}

func TestConvertPreservesOriginalEffectSemantics(t *testing.T) {
	// spec.md testable property 3: converting + executing the method must
	// match applying the original's effects directly.
	a := Action{
		Name:           "boil_water",
		EffectsAtStart: []EffectSpec{{Predicate: "heating", Subject: "kettle", Value: true}},
		EffectsAtEnd:   []EffectSpec{{Predicate: "heating", Subject: "kettle", Value: false}, {Predicate: "water", Subject: "kettle", Value: "boiled"}},
	}
	spec, method, _, err := Convert(a)
	require.NoError(t, err)
	require.Len(t, method, 1) // no at_start/at_end conditions, just the task

	direct := state.New()
	for _, e := range a.EffectsAtStart {
		direct = direct.Set(e.Predicate, e.Subject, e.Value)
	}
	for _, e := range a.EffectsAtEnd {
		direct = direct.Set(e.Predicate, e.Subject, e.Value)
	}

	viaMethod, err := spec.Effect(state.New(), nil)
	require.NoError(t, err)

	for _, pred := range []string{"heating", "water"} {
		dv, dok := direct.Get(pred, "kettle")
		mv, mok := viaMethod.Get(pred, "kettle")
		assert.Equal(t, dok, mok)
		assert.Equal(t, dv, mv)
	}

	_, isTask := method[0].AsTask()
	assert.True(t, isTask)
	_ = todo.Task{}
}
