package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesToFile(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})

	path := filepath.Join(t.TempDir(), "logs", "api.log")
	closeFn, err := Setup(Options{Level: "debug", JSON: true, File: path})
	require.NoError(t, err)

	logrus.WithField("node", "abc").Debug("probe")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"probe"`)
	assert.Contains(t, string(data), `"node":"abc"`)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}

func TestSetupFallsBackToInfo(t *testing.T) {
	t.Cleanup(func() { logrus.SetLevel(logrus.InfoLevel) })

	closeFn, err := Setup(Options{Level: "loud"})
	require.NoError(t, err)
	assert.NoError(t, closeFn())
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
