package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"trace": TRACE, "DEBUG": DEBUG, "": INFO, "warning": WARN, "Error": ERROR,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestComponentLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOG_DIR", dir)

	l, err := NewLogger("storage")
	require.NoError(t, err)
	l.SetConsoleLevel(ERROR)
	l.SetFileLevel(DEBUG)

	l.Debug("chunk %d saved", 7)
	l.Trace("не попадёт в файл")
	require.NoError(t, l.Close())

	files, err := filepath.Glob(filepath.Join(dir, "storage_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "[DEBUG] [storage] chunk 7 saved")
	assert.False(t, strings.Contains(string(content), "не попадёт"))
}

func TestEnabled(t *testing.T) {
	l := newConsoleLogger("test")
	assert.False(t, l.Enabled(DEBUG), "без файла DEBUG отключён при консольном INFO")
	assert.True(t, l.Enabled(WARN))

	l.SetConsoleLevel(TRACE)
	assert.True(t, l.Enabled(TRACE))
}

func TestManagerReusesLoggers(t *testing.T) {
	t.Setenv("LOG_DIR", t.TempDir())

	lm := &LoggerManager{loggers: make(map[string]*Logger)}
	a, err := lm.GetLogger("streaming")
	require.NoError(t, err)
	b, err := lm.GetLogger("streaming")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.ElementsMatch(t, []string{"streaming"}, lm.ListComponents())

	require.NoError(t, lm.SetLogLevel("streaming", WARN, INFO))
	assert.Error(t, lm.SetLogLevel("missing", WARN, INFO))
	require.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.ListComponents())
}

func TestHexDump(t *testing.T) {
	assert.Equal(t, "No data", HexDump(nil))
	dump := HexDump(make([]byte, 1000))
	assert.Equal(t, 16, strings.Count(dump, "\n"), "дамп ограничен 256 байтами")

	LogCorruptChunk(stringer("[0, 0, 0]"), errors.New("bad"), []byte{1, 2, 3})
}

type stringer string

func (s stringer) String() string { return string(s) }
