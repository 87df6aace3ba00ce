package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultLevel(t *testing.T) {
	l, err := New(Config{})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(0)) // info
	assert.False(t, l.Core().Enabled(-1))
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pathwise.log")
	l, err := New(Config{Level: "debug", File: path})
	require.NoError(t, err)

	l.Info("sprint generated")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"sprint generated"`)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
