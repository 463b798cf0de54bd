package logger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viefmoon/rawstream/internal/config"
)

func TestNew_JSONFormat(t *testing.T) {
	log, err := New(&config.LoggingConfig{
		Level:  "debug",
		Format: "json",
		Output: "stdout",
	})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestNew_TextFormat(t *testing.T) {
	log, err := New(&config.LoggingConfig{
		Level:  "warn",
		Format: "text",
		Output: "stderr",
	})
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&config.LoggingConfig{Level: "loud", Format: "json", Output: "stdout"})
	assert.Error(t, err)
}

func TestNew_FileOutputCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rawstream.log")
	log, err := New(&config.LoggingConfig{
		Level:   "info",
		Format:  "json",
		Output:  path,
		MaxSize: 10,
	})
	require.NoError(t, err)
	assert.DirExists(t, filepath.Dir(path))

	log.Info("hello")
}

func TestSampledLogger_SuppressesWithinInterval(t *testing.T) {
	s := NewSampledLogger(NewNullLogger()).WithSampler("fragment", time.Minute)

	// First call of the interval logs.
	require.NotNil(t, s.Entry("fragment"))

	// Everything else inside the interval is suppressed and counted.
	for i := 0; i < 5; i++ {
		assert.Nil(t, s.Entry("fragment"))
	}
	assert.Equal(t, int64(5), s.Suppressed("fragment"))
}

func TestSampledLogger_EmitsAfterInterval(t *testing.T) {
	s := NewSampledLogger(NewNullLogger()).WithSampler("fragment", 10*time.Millisecond)

	require.NotNil(t, s.Entry("fragment"))
	assert.Nil(t, s.Entry("fragment"))

	time.Sleep(15 * time.Millisecond)
	assert.NotNil(t, s.Entry("fragment"))
	// Emission resets the suppressed counter.
	assert.Equal(t, int64(0), s.Suppressed("fragment"))
}

func TestSampledLogger_UnregisteredCategoryAlwaysLogs(t *testing.T) {
	s := NewSampledLogger(NewNullLogger())
	for i := 0; i < 3; i++ {
		assert.NotNil(t, s.Entry("anything"))
	}
}
