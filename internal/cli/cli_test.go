package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t    *testing.T
	dir  string
	file string
	now  time.Time
}

func newHarness(t *testing.T) *harness {
	dir := t.TempDir()
	t.Setenv("TIMECLOCK_FILE", "")
	t.Setenv("TIMECLOCK_LOG_LEVEL", "")
	return &harness{
		t:    t,
		dir:  dir,
		file: filepath.Join(dir, "clock_data.txt"),
		now:  time.Date(2025, time.January, 6, 9, 0, 0, 0, time.Local),
	}
}

func (h *harness) run(args ...string) (string, int) {
	full := append([]string{"--config", filepath.Join(h.dir, "timeclock.yaml"), "--file", h.file}, args...)

	var out, errw bytes.Buffer
	code := run(full, &out, &errw, func() time.Time { return h.now })
	return out.String(), code
}

func (h *harness) log() string {
	data, err := os.ReadFile(h.file)
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(h.t, err)
	return string(data)
}

func TestClockCommands(t *testing.T) {
	t.Run("in, status, out, status", func(t *testing.T) {
		h := newHarness(t)

		out, code := h.run("status")
		assert.Equal(t, 0, code)
		assert.Equal(t, "No entries yet. You have not clocked in or out.\n", out)

		out, _ = h.run("in")
		assert.Equal(t, "Clocked in.\n", out)

		h.now = h.now.Add(26*time.Hour + 3*time.Minute + 4*time.Second)
		out, _ = h.run("status")
		assert.Equal(t, "Status: CLOCKED IN\nStarted: 01-06-2025 09:00:00\nElapsed: 1d 2h 3m 4s\n", out)

		out, _ = h.run("out")
		assert.Equal(t, "Clocked out.\n", out)

		out, _ = h.run("status")
		assert.Equal(t, "Status: CLOCKED OUT\nLast clock-out: 01-07-2025 11:03:04\n", out)

		assert.Equal(t, "01-06-2025 09:00:00 in\n01-07-2025 11:03:04 out\n", h.log())
	})

	t.Run("double clock in", func(t *testing.T) {
		h := newHarness(t)

		h.run("in")
		out, code := h.run("in")
		assert.Equal(t, 0, code)
		assert.Equal(t, "Error: already clocked in.\n", out)
		assert.Equal(t, 1, strings.Count(h.log(), "\n"))
	})

	t.Run("clock out first", func(t *testing.T) {
		h := newHarness(t)

		out, code := h.run("out")
		assert.Equal(t, 0, code)
		assert.Equal(t, "Error: cannot clock out unless clocked in.\n", out)
		assert.Empty(t, h.log())
	})
}

func TestWeeklyCommands(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.file, []byte("01-06-2025 09:00:00 in\n01-06-2025 13:30:00 out\n"), 0o600))

	want := "WEEK                             HOURS\n" +
		"01-06-2025 to 01-12-2025           4.5\n"

	out, code := h.run("weekly")
	assert.Equal(t, 0, code)
	assert.Equal(t, want, out)

	out, _ = h.run("all")
	assert.Equal(t, want, out)
}

func TestWeeklyLimit(t *testing.T) {
	h := newHarness(t)

	var log strings.Builder
	start := time.Date(2024, time.September, 2, 9, 0, 0, 0, time.Local)
	for i := 0; i < 12; i++ {
		day := start.AddDate(0, 0, 7*i)
		log.WriteString(day.Format("01-02-2006") + " 09:00:00 in\n")
		log.WriteString(day.Format("01-02-2006") + " 10:00:00 out\n")
	}
	require.NoError(t, os.WriteFile(h.file, []byte(log.String()), 0o600))

	out, _ := h.run("weekly")
	assert.Equal(t, 11, strings.Count(out, "\n"), "header plus ten weeks")
	assert.NotContains(t, out, "09-02-2024 to")

	out, _ = h.run("all")
	assert.Equal(t, 13, strings.Count(out, "\n"))
	assert.Contains(t, out, "09-02-2024 to 09-08-2024")
}

func TestClearCommand(t *testing.T) {
	const log = "01-06-2025 09:00:00 in\n01-06-2025 12:00:00 out\n01-06-2025 13:00:00 in\n"

	cases := []struct {
		name    string
		arg     string
		want    string
		wantLog string
	}{
		{"nothing", "0", "Nothing to clear.\n", log},
		{"one", "1", "Cleared last 1 entry.\n", "01-06-2025 09:00:00 in\n01-06-2025 12:00:00 out\n"},
		{"two", "2", "Cleared last 2 entries.\n", "01-06-2025 09:00:00 in\n"},
		{"everything", "3", "Cleared entire file.\n", ""},
		{"more than everything", "7", "Cleared entire file.\n", ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, os.WriteFile(h.file, []byte(log), 0o600))

			out, code := h.run("clear", c.arg)
			assert.Equal(t, 0, code)
			assert.Equal(t, c.want, out)
			assert.Equal(t, c.wantLog, h.log())
		})
	}

	t.Run("no log", func(t *testing.T) {
		h := newHarness(t)

		out, code := h.run("clear", "1")
		assert.Equal(t, 0, code)
		assert.Equal(t, "Error: no data file to clear.\n", out)
	})
}

func TestUsage(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"in", "now"}, usageLine + "\n"},
		{[]string{"status", "x"}, usageLine + "\n"},
		{[]string{"weekly", "5"}, usageLine + "\n"},
		{[]string{"clear"}, clearUsageLine + "\n"},
		{[]string{"clear", "x"}, clearUsageLine + "\n"},
		{[]string{"clear", "1", "2"}, clearUsageLine + "\n"},
		{[]string{"clear", "-1"}, clearUsageLine + "\n"},
		{[]string{"punch"}, "Unknown command.\n"},
	}

	for _, c := range cases {
		t.Run(strings.Join(c.args, " "), func(t *testing.T) {
			h := newHarness(t)

			out, code := h.run(c.args...)
			assert.Equal(t, 0, code)
			assert.Equal(t, c.want, out)
		})
	}
}

func TestMalformedLog(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.file, []byte("01-06-2025 09:00:00 in\ngarbage\n"), 0o600))

	out, code := h.run("status")
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(out, "Error: "), out)
	assert.Contains(t, out, "line 2")
}

func TestConfigFile(t *testing.T) {
	h := newHarness(t)
	other := filepath.Join(h.dir, "other.txt")
	cfg := "store:\n  path: " + other + "\nreport:\n  weekly_limit: 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "timeclock.yaml"), []byte(cfg), 0o600))

	var out, errw bytes.Buffer
	code := run([]string{"--config", filepath.Join(h.dir, "timeclock.yaml"), "in"}, &out, &errw, func() time.Time { return h.now })
	require.Equal(t, 0, code)

	data, err := os.ReadFile(other)
	require.NoError(t, err)
	assert.Equal(t, "01-06-2025 09:00:00 in\n", string(data))
}
