package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New(false, "info")
	require.NoError(t, err)
	assert.NotNil(t, l)

	l, err = New(true, "DEBUG")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = New(false, "loud")
	assert.Error(t, err)
}

func TestCronLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cl := CronLogger{S: zap.New(core).Sugar()}

	cl.Info("schedule", "entry", 1)
	cl.Error(errors.New("boom"), "run failed", "entry", 1)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "schedule", entries[0].Message)
	assert.Equal(t, "run failed", entries[1].Message)
	assert.Equal(t, "boom", entries[1].ContextMap()["err"].(string))
}
