package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchCommand(t *testing.T) {
	assert.Equal(t, "watch", watchCmd.Use)
	assert.NotEmpty(t, watchCmd.Short)
	assert.NotEmpty(t, watchCmd.Long)
	assert.NotEmpty(t, watchCmd.Example)
	assert.NotNil(t, watchCmd.RunE)
}

func TestWatchCommandFlags(t *testing.T) {
	tests := []struct {
		flag   string
		hidden bool
	}{
		{"daemon", false},
		{"daemon-child", true},
		{"pid-file", false},
		{"log-file", false},
		{"stop", false},
		{"path", false},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			f := watchCmd.Flags().Lookup(tt.flag)
			require.NotNil(t, f, "--%s not registered", tt.flag)
			assert.Equal(t, tt.hidden, f.Hidden)
		})
	}
}

func TestWatchCommand_StopWhenNotRunning(t *testing.T) {
	db := setupEnv(t)
	pidFile := t.TempDir() + "/watch.pid"

	out, err := execute(t, "--db", db, "watch", "--stop", "--pid-file", pidFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Daemon is not running")
}
