package scheduler

import (
	"testing"

	"farmgear-backend/internal/config"
	"farmgear-backend/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runnerWithSpec(spec string) *jobs.JobRunner {
	cfg := &config.Config{}
	cfg.Scheduler.ExpireStalePendingOrders = spec
	return jobs.NewJobRunner(&jobs.Services{}, cfg)
}

func TestNewScheduler_RegistersJobs(t *testing.T) {
	s, err := NewScheduler(runnerWithSpec("0 15 0 * * *"))
	require.NoError(t, err)
	assert.True(t, s.IsRunning())

	next := s.Next()
	require.Len(t, next, 1)
	assert.Equal(t, 0, next[0].Hour())
	assert.Equal(t, 15, next[0].Minute())
}

func TestNewScheduler_BadSpec(t *testing.T) {
	_, err := NewScheduler(runnerWithSpec("every tuesday"))
	assert.Error(t, err)
}

func TestNewScheduler_EmptySpecSkips(t *testing.T) {
	s, err := NewScheduler(runnerWithSpec(""))
	require.NoError(t, err)
	assert.False(t, s.IsRunning())
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := NewScheduler(runnerWithSpec("0 0 3 * * *"))
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
