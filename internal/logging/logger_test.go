package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, TRACE, ParseLevel("trace"))
	assert.Equal(t, DEBUG, ParseLevel("DEBUG"))
	assert.Equal(t, WARN, ParseLevel("warn"))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, INFO, ParseLevel("что-то"))
}

func TestNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("ничего %d", 1)
		_ = l.Close()
	})
}

func TestLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	SetLogDir(dir)
	defer SetLogDir("logs")

	logger, err := NewLogger("unit")
	require.NoError(t, err)
	logger.SetLevels(ERROR, DEBUG)

	logger.Debug("отладка %s", "ok")
	logger.Trace("не попадёт в файл")
	require.NoError(t, logger.Close())

	files, err := filepath.Glob(filepath.Join(dir, "unit_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "[DEBUG] [unit] отладка ok"))
	assert.False(t, strings.Contains(string(data), "не попадёт"))
}

func TestLoggerManager_SetLogLevelUnknown(t *testing.T) {
	err := GetLoggerManager().SetLogLevel("нет-такого", INFO, INFO)
	assert.Error(t, err)
}

func TestLoggerManager_Components(t *testing.T) {
	SetLogDir(t.TempDir())
	defer SetLogDir("logs")

	lm := &LoggerManager{loggers: make(map[string]*Logger)}
	a := lm.MustGetLogger("net")
	b := lm.MustGetLogger("net")
	assert.Same(t, a, b)
	lm.MustGetLogger("game")

	assert.Equal(t, []string{"game", "net"}, lm.ListComponents())

	lm.SetLevelAll(ERROR, WARN)
	require.NoError(t, lm.SetLogLevel("net", DEBUG, DEBUG))

	require.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.ListComponents())
}
