package platform

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleInstance(t *testing.T) {
	name := fmt.Sprintf("wellbeing-test-%d", time.Now().UnixNano())

	guard, err := AcquireSingleInstance(name)
	require.NoError(t, err)
	defer guard.Release()

	_, err = AcquireSingleInstance(name)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	var activations atomic.Int32
	go guard.Serve(func() { activations.Add(1) })

	require.NoError(t, ActivateRunning(name))
	assert.Eventually(t, func() bool { return activations.Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, guard.Release())
	again, err := AcquireSingleInstance(name)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestPortFromNameIsStable(t *testing.T) {
	port := portFromName("wellbeing")
	assert.Equal(t, port, portFromName("wellbeing"))
	assert.GreaterOrEqual(t, port, 20000)
	assert.LessOrEqual(t, port, 39999)
}

func TestAutostartCommandLine(t *testing.T) {
	autostart := NewAutostart("Wellbeing Timer", "/opt/my apps/wellbeing", "run")

	assert.Equal(t, `"/opt/my apps/wellbeing" run`, autostart.commandLine())
	assert.Equal(t, "wellbeing-timer", autostart.slug())
	assert.Error(t, NewAutostart("", "/bin/x").validate("enable"))
	assert.Error(t, NewAutostart("x", "").validate("enable"))
	assert.NoError(t, NewAutostart("x", "").validate("disable"))
}
