package printer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/go-ultiprint/logger"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.PostMonitor)
	assert.Equal(t, 50, cfg.MaxIOErrors)
	assert.Equal(t, DefaultStartupReply, cfg.StartupReply)
	assert.NotNil(t, cfg.Notifier)
}

func TestOptions(t *testing.T) {
	rec := &recorder{}
	log := logger.Discard()

	s, err := New(nil,
		WithPollInterval(20*time.Millisecond),
		WithResendPause(0),
		WithFatalDrain(time.Second),
		WithPostMonitor(3*time.Second),
		WithResetTimings(time.Millisecond, time.Second),
		WithMaxIOErrors(7, 5*time.Millisecond),
		WithProgressEvery(10),
		WithStartupReply(""),
		WithLogger(log),
		WithNotifier(rec),
	)
	require.NoError(t, err)

	cfg := s.cfg
	assert.Equal(t, 20*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.ResendPause)
	assert.Equal(t, time.Second, cfg.FatalDrain)
	assert.Equal(t, 3*time.Second, cfg.PostMonitor)
	assert.Equal(t, time.Millisecond, cfg.ResetDrain)
	assert.Equal(t, time.Second, cfg.ResetSettle)
	assert.Equal(t, 7, cfg.MaxIOErrors)
	assert.Equal(t, 5*time.Millisecond, cfg.IOErrorBackoff)
	assert.Equal(t, 10, cfg.ProgressEvery)
	assert.Empty(t, cfg.StartupReply)
	assert.Same(t, rec, cfg.Notifier)
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero poll interval", WithPollInterval(0)},
		{"negative resend pause", WithResendPause(-time.Second)},
		{"negative fatal drain", WithFatalDrain(-1)},
		{"negative post monitor", WithPostMonitor(-1)},
		{"negative reset settle", WithResetTimings(0, -1)},
		{"no I/O errors allowed", WithMaxIOErrors(0, 0)},
		{"zero progress interval", WithProgressEvery(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil, tt.opt)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestWithNilNotifier(t *testing.T) {
	s, err := New(nil, WithNotifier(nil))
	require.NoError(t, err)
	assert.IsType(t, NopNotifier{}, s.notify)
}
