package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evm.log")
	require.NoError(t, Setup(Config{Level: "debug", File: path, MaxSize: 1}))
	defer Setup(DefaultConfig)

	log := NewLogger("[test]")
	log.Debugf("hello %d", 42)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello 42")
	assert.Contains(t, string(data), "[test]")
}

func TestSetLevel(t *testing.T) {
	defer Setup(DefaultConfig)

	require.NoError(t, SetLevel("WARNING"))
	assert.False(t, NewLogger("[test]").IsEnabledFor(logging.INFO))
	assert.Error(t, SetLevel("LOUD"))
	assert.Error(t, Setup(Config{Level: "LOUD"}))
}
