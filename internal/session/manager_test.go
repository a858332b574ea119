package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/RevCBH/medalert/internal/classify"
	"github.com/RevCBH/medalert/internal/escalate"
	"github.com/RevCBH/medalert/internal/events"
	"github.com/RevCBH/medalert/internal/history"
	"github.com/RevCBH/medalert/internal/rules"
)

func newManager(bus Emitter) *Manager {
	return NewManager(Options{
		Classifier: classify.NewStatic(rules.Default()),
		Escalation: escalate.ControllerConfig{Layer: &countingLayer{}},
		Bus:        bus,
	})
}

func TestManager_GetCreatesOnce(t *testing.T) {
	m := newManager(nil)
	defer m.Close()

	a := m.Get("a")
	assert.Same(t, a, m.Get("a"))
	assert.Equal(t, DefaultID, m.Get("").ID())
	assert.Equal(t, []string{"a", DefaultID}, m.IDs())
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m := newManager(nil)
	defer m.Close()

	a, b := m.Get("a"), m.Get("b")
	a.Submit("chest pain")
	a.Dismiss()

	assert.Equal(t, 1, a.History().Len())
	assert.Equal(t, 0, b.History().Len())
	assert.True(t, a.Escalation().Dismissed)
	assert.False(t, b.Escalation().Dismissed)

	res, _ := b.Submit("chest pain")
	assert.True(t, res.AlertVisible)
}

func TestManager_Delete(t *testing.T) {
	bus := &recordingBus{}
	m := newManager(bus)
	defer m.Close()

	m.Get("a")
	assert.True(t, m.Delete("a"))
	assert.False(t, m.Delete("a"))
	_, ok := m.Lookup("a")
	assert.False(t, ok)
	assert.Equal(t, []events.EventType{events.SessionCreated, events.SessionClosed}, bus.types())
}

func TestManager_CloseLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newManager(nil)
	m.Get("a").Submit("chest pain")
	m.Get("b").Submit("stroke, slurred speech")
	m.Close()
	assert.Equal(t, 0, m.Len())
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	require.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestManager_ViewDoesNotCreate(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newManager(nil)
	defer m.Close()

	snap := m.View("unknown")
	assert.Empty(t, snap.Events)
	assert.Equal(t, history.Counts{}, snap.Counts)
	assert.Equal(t, escalate.PhaseIdle, m.State("unknown").Phase)
	assert.Equal(t, 0, m.Len())

	m.Get("live").Submit("chest pain")
	m.Get("live").Controller().Wait()
	assert.Equal(t, 1, m.View("live").Counts.High)
	assert.Equal(t, 1, m.State("live").Attempts)
	assert.Equal(t, 1, m.Len())
}

func TestManager_ViewReadsArchive(t *testing.T) {
	archive, err := history.OpenArchive(":memory:")
	require.NoError(t, err)
	defer archive.Close()

	adv := classify.Classify("fever", rules.Default())
	require.NoError(t, archive.Append("patient-2", history.NewEvent("fever", adv, time.Now())))

	m := NewManager(Options{
		Classifier: classify.NewStatic(rules.Default()),
		Escalation: escalate.ControllerConfig{Layer: &countingLayer{}},
		Archive:    archive,
	})
	defer m.Close()

	snap := m.View("patient-2")
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "fever", snap.Events[0].Text)
	require.NotNil(t, snap.Latest)
	assert.Equal(t, adv, *snap.Latest)
	assert.Equal(t, 0, m.Len())
}
