package store

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Layouts of the two timestamp tokens on each log line.
const (
	DateLayout      = "01-02-2006"
	TimeLayout      = "15:04:05"
	TimestampLayout = DateLayout + " " + TimeLayout
)

type Status string

const (
	StatusIn  Status = "in"
	StatusOut Status = "out"
)

// ErrNoData is returned by ClearLast when the log file does not exist.
var ErrNoData = errors.New("no data file to clear")

type Entry struct {
	Timestamp time.Time
	Status    Status
}

// String renders the entry exactly as it is stored, without the newline.
func (e Entry) String() string {
	return e.Timestamp.Format(TimestampLayout) + " " + string(e.Status)
}

// ParseError reports a log line that could not be decoded.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q (line %d): %v", e.Text, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseLine decodes one "MM-DD-YYYY HH:MM:SS status" line in local time.
func ParseLine(line string) (Entry, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Entry{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}
	ts, err := time.ParseInLocation(TimestampLayout, fields[0]+" "+fields[1], time.Local)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Timestamp: ts, Status: Status(fields[2])}, nil
}

// FileStore is the append-only clock log. The mutex only orders writers
// inside one process; nothing guards against a second process.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

// ReadEntries returns every entry in file order. A missing file is an
// empty log.
func (s *FileStore) ReadEntries() ([]Entry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "open log %s", s.path)
	}
	defer f.Close()

	var (
		entries []Entry
		n       int
	)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
		ent, err := ParseLine(sc.Text())
		if err != nil {
			return nil, &ParseError{Line: n, Text: sc.Text(), Err: err}
		}
		entries = append(entries, ent)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "read log %s", s.path)
	}
	return entries, nil
}

// Append writes one entry at the end of the log, creating it if needed.
func (s *FileStore) Append(ts time.Time, status Status) error {
	line := Entry{Timestamp: ts, Status: status}.String() + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create log dir %s", dir)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return errors.Wrapf(err, "open log %s", s.path)
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return errors.Wrapf(err, "append to %s", s.path)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrapf(err, "sync %s", s.path)
	}
	return f.Close()
}

// ClearResult describes what ClearLast did.
type ClearResult struct {
	Removed     int
	DeletedFile bool
}

// ClearLast drops the last n lines of the log. When n covers the whole
// file the file is removed. Partial clears are written to a temp file and
// renamed into place.
func (s *FileStore) ClearLast(n int) (ClearResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ClearResult{}, ErrNoData
		}
		return ClearResult{}, errors.Wrapf(err, "read log %s", s.path)
	}
	if n <= 0 {
		return ClearResult{}, nil
	}

	lines := splitLines(data)
	if n >= len(lines) {
		if err := os.Remove(s.path); err != nil {
			return ClearResult{}, errors.Wrapf(err, "remove %s", s.path)
		}
		return ClearResult{Removed: len(lines), DeletedFile: true}, nil
	}

	keep := bytes.Join(lines[:len(lines)-n], nil)
	if err := s.replace(keep); err != nil {
		return ClearResult{}, err
	}
	return ClearResult{Removed: n}, nil
}

func (s *FileStore) replace(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return errors.Wrap(err, "create temp log")
	}
	name := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(name)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return errors.Wrapf(err, "write %s", name)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return errors.Wrapf(err, "sync %s", name)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return errors.Wrapf(err, "close %s", name)
	}
	if err := os.Chmod(name, 0o600); err != nil {
		os.Remove(name)
		return errors.Wrapf(err, "chmod %s", name)
	}
	if err := os.Rename(name, s.path); err != nil {
		os.Remove(name)
		return errors.Wrapf(err, "rename over %s", s.path)
	}
	return nil
}

// splitLines keeps each line's terminator so a partial rewrite is
// byte-identical to the kept prefix.
func splitLines(data []byte) [][]byte {
	lines := bytes.SplitAfter(data, []byte("\n"))
	if len(lines) > 0 && len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// LastStatus reports the status of the final entry.
func LastStatus(entries []Entry) (Status, bool) {
	if len(entries) == 0 {
		return "", false
	}
	return entries[len(entries)-1].Status, true
}
