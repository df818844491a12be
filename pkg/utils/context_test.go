package utils_test

import (
	"context"
	"testing"
	"time"

	"github.com/robalyx/verdict/pkg/utils"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestContextSleep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		duration       time.Duration
		cancelAfter    time.Duration
		expectedResult utils.SleepResult
	}{
		{
			name:           "sleep completes normally",
			duration:       10 * time.Millisecond,
			expectedResult: utils.SleepCompleted,
		},
		{
			name:           "context cancelled before sleep completes",
			duration:       time.Second,
			cancelAfter:    10 * time.Millisecond,
			expectedResult: utils.SleepCancelled,
		},
		{
			name:           "zero duration sleep",
			expectedResult: utils.SleepCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			if tt.cancelAfter > 0 {
				go func() {
					time.Sleep(tt.cancelAfter)
					cancel()
				}()
			}

			assert.Equal(t, tt.expectedResult, utils.ContextSleep(ctx, tt.duration))
		})
	}
}

func TestContextSleepAlreadyCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	assert.Equal(t, utils.SleepCancelled, utils.ContextSleep(ctx, 0))
	assert.Equal(t, utils.SleepCancelled, utils.ContextSleepWithLog(ctx, time.Second, zaptest.NewLogger(t), "stopped"))
}

func TestWorkerSleeps(t *testing.T) {
	t.Parallel()

	logger := zaptest.NewLogger(t)

	assert.True(t, utils.ErrorSleep(t.Context(), time.Millisecond, logger, "test worker"))
	assert.True(t, utils.IntervalSleep(t.Context(), time.Millisecond, logger, "test worker"))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	assert.False(t, utils.ErrorSleep(ctx, time.Second, logger, "test worker"))
	assert.False(t, utils.IntervalSleep(ctx, time.Second, logger, "test worker"))
}
