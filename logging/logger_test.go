package logging

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextFormatter(t *testing.T) {
	formatter := &TextFormatter{Config: FormatConfig{}}

	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "cookie store missing",
		Data: logrus.Fields{
			"component": "session-store",
			"file_name": "Cookies",
		},
	}

	out, err := formatter.Format(entry)
	require.NoError(t, err)

	line := string(out)
	assert.Contains(t, line, "2024-03-01 12:30:00")
	assert.Contains(t, line, "[WARN]")
	assert.Contains(t, line, "[session-store]")
	assert.Contains(t, line, "cookie store missing")
	assert.Contains(t, line, "file_name=Cookies")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestTextFormatterDisabledParts(t *testing.T) {
	formatter := &TextFormatter{Config: FormatConfig{
		DisableTimestamp: true,
		DisableComponent: true,
	}}

	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Now(),
		Level:   logrus.InfoLevel,
		Message: "restart completed",
		Data:    logrus.Fields{"component": "audio"},
	}

	out, err := formatter.Format(entry)
	require.NoError(t, err)

	line := string(out)
	assert.NotContains(t, line, "[audio]")
	assert.Equal(t, "[INFO] restart completed\n", line)
}

func TestNewLoggerCachesPerComponent(t *testing.T) {
	t.Setenv("NSHELL_HOME", t.TempDir())

	first := NewLogger("test-component")
	second := NewLogger("test-component")
	assert.Same(t, first, second)

	other := NewLogger("other-component")
	assert.NotSame(t, first, other)
	assert.Equal(t, "other-component", other.Data["component"])
}
