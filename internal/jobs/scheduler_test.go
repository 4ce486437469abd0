package jobs_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/straye-as/blind-quote/internal/jobs"
	"github.com/straye-as/blind-quote/internal/service"
)

// ============================================================================
// Scheduler
// ============================================================================

func TestScheduler_AddAndRemoveJobs(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("b_job", "@every 1h", func() {}))
	require.NoError(t, s.AddJob("a_job", "0 */5 * * * *", func() {}))
	assert.Equal(t, []string{"a_job", "b_job"}, s.GetJobNames())

	err := s.AddJob("a_job", "@every 1h", func() {})
	assert.ErrorContains(t, err, "already exists")

	err = s.AddJob("broken", "not a cron", func() {})
	assert.Error(t, err)
	assert.NotContains(t, s.GetJobNames(), "broken")

	require.NoError(t, s.RemoveJob("b_job"))
	assert.Equal(t, []string{"a_job"}, s.GetJobNames())
	assert.Error(t, s.RemoveJob("b_job"))
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	var runs atomic.Int32
	require.NoError(t, s.AddJob("tick", "@every 1s", func() { runs.Add(1) }))

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	<-s.Stop().Done()
}

func TestScheduler_RecoversPanics(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	var runs atomic.Int32
	require.NoError(t, s.AddJob("panics", "@every 1s", func() {
		runs.Add(1)
		panic("boom")
	}))

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 4*time.Second, 50*time.Millisecond)
	<-s.Stop().Done()
}

// ============================================================================
// AutoSaveJob
// ============================================================================

type fakeSaver struct {
	err      error
	calls    int
	deadline bool
}

func (f *fakeSaver) Save(ctx context.Context) error {
	f.calls++
	_, f.deadline = ctx.Deadline()
	return f.err
}

func TestAutoSaveJob_Run(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel string
		wantLogs  int
	}{
		{"success is silent", nil, "", 0},
		{"empty quote is skipped", service.ErrNothingToSave, "debug", 1},
		{"wrapped empty quote is skipped", errors.Join(errors.New("save"), service.ErrNothingToSave), "debug", 1},
		{"failure is logged", errors.New("disk full"), "error", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			saver := &fakeSaver{err: tt.err}

			jobs.NewAutoSaveJob(saver, zap.New(core), 0).Run()

			assert.Equal(t, 1, saver.calls)
			assert.True(t, saver.deadline)
			require.Equal(t, tt.wantLogs, logs.Len())
			if tt.wantLogs > 0 {
				assert.Equal(t, tt.wantLevel, logs.All()[0].Level.String())
			}
		})
	}
}

func TestRegisterAutoSaveJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, jobs.RegisterAutoSaveJob(s, &fakeSaver{}, zap.NewNop(), "@every 60s", 5*time.Second))
	assert.Equal(t, []string{jobs.AutoSaveJobName}, s.GetJobNames())

	err := jobs.RegisterAutoSaveJob(s, &fakeSaver{}, zap.NewNop(), "@every 60s", 0)
	assert.Error(t, err)
}
