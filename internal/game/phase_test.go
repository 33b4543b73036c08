package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/grimoire/internal/errors"
	"go.uber.org/zap"
)

func TestPhaseMachine_Transitions(t *testing.T) {
	pm := NewPhaseMachine(zap.NewNop())
	assert.Equal(t, PhaseScriptSelection, pm.Current())

	var changes []string
	pm.OnStateChange(func(from, to Phase, event string) {
		changes = append(changes, string(from)+">"+string(to))
	})

	steps := []struct {
		event string
		want  Phase
	}{
		{EventSelectScript, PhaseSetup},
		{EventBeginCheck, PhaseCheck},
		{EventCancelCheck, PhaseSetup},
		{EventBeginCheck, PhaseCheck},
		{EventStartFirstNight, PhaseFirstNight},
		{EventEndNight, PhaseDawnReport},
		{EventStartDay, PhaseDay},
		{EventOpenDusk, PhaseDusk},
		{EventStartNight, PhaseNight},
		{EventEndNight, PhaseDawnReport},
		{EventGameOver, PhaseGameOver},
		{EventReset, PhaseScriptSelection},
	}
	for _, s := range steps {
		require.NoError(t, pm.Trigger(s.event), s.event)
		assert.Equal(t, s.want, pm.Current())
	}
	assert.Len(t, changes, len(steps))
	assert.Equal(t, "script_selection>setup", changes[0])
}

func TestPhaseMachine_Illegal(t *testing.T) {
	pm := NewPhaseMachine(nil)

	err := pm.Trigger(EventStartNight)
	assert.True(t, errors.Is(err, errors.ErrIllegalPhase))
	assert.Equal(t, PhaseScriptSelection, pm.Current())

	assert.False(t, pm.CanTransition(EventGameOver))
	assert.True(t, pm.CanTransition(EventSelectScript))
	assert.Equal(t, []string{EventReset, EventSelectScript}, pm.ValidEvents())
}

func TestPhase_Predicates(t *testing.T) {
	assert.True(t, PhaseFirstNight.IsNight())
	assert.True(t, PhaseNight.IsNight())
	assert.False(t, PhaseDusk.IsNight())

	assert.True(t, PhaseDay.InGame())
	assert.False(t, PhaseSetup.InGame())
	assert.False(t, PhaseGameOver.InGame())
}
