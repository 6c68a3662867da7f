package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour, min int) time.Time {
	return time.Date(2025, time.January, day, hour, min, 0, 0, time.Local)
}

func newStore(t *testing.T) *FileStore {
	return NewFileStore(filepath.Join(t.TempDir(), "clock_data.txt"))
}

func TestReadEntries(t *testing.T) {
	t.Run("missing file is an empty log", func(t *testing.T) {
		s := newStore(t)

		entries, err := s.ReadEntries()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("parses the fixed format", func(t *testing.T) {
		s := newStore(t)
		err := os.WriteFile(s.Path(), []byte("01-06-2025 09:00:00 in\n01-06-2025 13:30:00 out\n"), 0o600)
		require.NoError(t, err)

		entries, err := s.ReadEntries()
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.True(t, entries[0].Timestamp.Equal(at(6, 9, 0)))
		assert.Equal(t, StatusIn, entries[0].Status)
		assert.True(t, entries[1].Timestamp.Equal(at(6, 13, 30)))
		assert.Equal(t, StatusOut, entries[1].Status)
	})

	t.Run("reports the bad line", func(t *testing.T) {
		bad := []string{
			"01-06-2025 09:00:00",
			"01-06-2025 09:00:00 in extra",
			"2025-01-06 09:00:00 in",
			"01-06-2025 9am in",
			"",
		}

		for _, line := range bad {
			s := newStore(t)
			err := os.WriteFile(s.Path(), []byte("01-06-2025 08:00:00 in\n"+line+"\n"), 0o600)
			require.NoError(t, err)

			_, err = s.ReadEntries()
			var perr *ParseError
			require.True(t, errors.As(err, &perr), "line %q", line)
			assert.Equal(t, 2, perr.Line)
			assert.Equal(t, line, perr.Text)
		}
	})
}

func TestAppend(t *testing.T) {
	t.Run("round trips entries", func(t *testing.T) {
		s := newStore(t)

		want := []Entry{
			{Timestamp: at(6, 9, 0), Status: StatusIn},
			{Timestamp: at(6, 17, 0), Status: StatusOut},
			{Timestamp: at(7, 8, 15), Status: StatusIn},
			{Timestamp: at(7, 12, 45), Status: StatusOut},
		}
		for _, e := range want {
			require.NoError(t, s.Append(e.Timestamp, e.Status))
		}

		got, err := s.ReadEntries()
		require.NoError(t, err)
		require.Len(t, got, len(want))

		for i := range want {
			assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp), "entry %d", i)
			assert.Equal(t, want[i].Status, got[i].Status)
		}
	})

	t.Run("writes one formatted line", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Append(at(6, 9, 5), StatusIn))

		data, err := os.ReadFile(s.Path())
		require.NoError(t, err)
		assert.Equal(t, "01-06-2025 09:05:00 in\n", string(data))
	})

	t.Run("creates the parent directory", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "nested", "log.txt"))

		require.NoError(t, s.Append(at(6, 9, 0), StatusIn))

		_, err := os.Stat(s.Path())
		require.NoError(t, err)
	})
}

func TestClearLast(t *testing.T) {
	const log = "01-06-2025 09:00:00 in\n01-06-2025 12:00:00 out\n01-06-2025 13:00:00 in\n"

	setup := func(t *testing.T) *FileStore {
		s := newStore(t)
		require.NoError(t, os.WriteFile(s.Path(), []byte(log), 0o600))
		return s
	}

	t.Run("missing file", func(t *testing.T) {
		s := newStore(t)

		_, err := s.ClearLast(1)
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("zero leaves the file alone", func(t *testing.T) {
		s := setup(t)

		res, err := s.ClearLast(0)
		require.NoError(t, err)
		assert.Equal(t, ClearResult{}, res)

		data, err := os.ReadFile(s.Path())
		require.NoError(t, err)
		assert.Equal(t, log, string(data))
	})

	t.Run("whole log deletes the file", func(t *testing.T) {
		s := setup(t)

		res, err := s.ClearLast(3)
		require.NoError(t, err)
		assert.True(t, res.DeletedFile)
		assert.Equal(t, 3, res.Removed)

		_, err = os.Stat(s.Path())
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("more than the log deletes the file", func(t *testing.T) {
		s := setup(t)

		res, err := s.ClearLast(10)
		require.NoError(t, err)
		assert.True(t, res.DeletedFile)
	})

	t.Run("keeps the prefix", func(t *testing.T) {
		s := setup(t)

		res, err := s.ClearLast(1)
		require.NoError(t, err)
		assert.Equal(t, ClearResult{Removed: 1}, res)

		data, err := os.ReadFile(s.Path())
		require.NoError(t, err)
		assert.Equal(t, "01-06-2025 09:00:00 in\n01-06-2025 12:00:00 out\n", string(data))

		matches, err := filepath.Glob(filepath.Join(filepath.Dir(s.Path()), ".clock_data.txt.*"))
		require.NoError(t, err)
		assert.Empty(t, matches, "temp file left behind")
	})
}

func TestLastStatus(t *testing.T) {
	_, ok := LastStatus(nil)
	assert.False(t, ok)

	st, ok := LastStatus([]Entry{
		{Timestamp: at(6, 9, 0), Status: StatusIn},
		{Timestamp: at(6, 10, 0), Status: StatusOut},
	})
	assert.True(t, ok)
	assert.Equal(t, StatusOut, st)
}
