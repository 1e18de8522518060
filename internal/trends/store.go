package trends

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"trendcrawl/internal/models"
)

var (
	ErrNoSnapshot      = errors.New("no snapshot")
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

const dayLayout = "2006-01-02"

// FileStore keeps one JSON snapshot per source per calendar day under dir,
// named <source>_<YYYY-MM-DD>.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(source string, day time.Time) string {
	return filepath.Join(s.dir, source+"_"+day.Format(dayLayout)+".json")
}

// fileRecord mirrors models.Snapshot with a loosely typed timestamp, so a
// record written by another tool still loads.
type fileRecord struct {
	Source    string             `json:"source"`
	Timestamp string             `json:"timestamp"`
	Trends    []models.TrendItem `json:"trends"`
}

// Save writes snap to the file for its timestamp's day, replacing any
// earlier snapshot of that day.
func (s *FileStore) Save(snap models.Snapshot) error {
	rec := fileRecord{
		Source:    snap.Source,
		Timestamp: snap.Timestamp.Format(time.RFC3339Nano),
		Trends:    snap.Trends,
	}
	if rec.Trends == nil {
		rec.Trends = []models.TrendItem{}
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	target := s.path(snap.Source, snap.Timestamp)
	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Load reads the snapshot of source for day.
func (s *FileStore) Load(source string, day time.Time) (models.Snapshot, error) {
	return s.read(s.path(source, day))
}

// LoadLatest returns the most recent readable snapshot of source, skipping
// corrupt files.
func (s *FileStore) LoadLatest(source string) (models.Snapshot, error) {
	days, err := s.days(source)
	if err != nil {
		return models.Snapshot{}, err
	}
	for i := len(days) - 1; i >= 0; i-- {
		snap, err := s.read(s.path(source, days[i]))
		if err == nil {
			return snap, nil
		}
	}
	return models.Snapshot{}, ErrNoSnapshot
}

// LastModified is the newest modification time across all snapshot files.
// ok is false when there are none.
func (s *FileStore) LastModified() (t time.Time, ok bool, err error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*_*.json"))
	if err != nil {
		return time.Time{}, false, err
	}
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil {
			continue
		}
		if !ok || fi.ModTime().After(t) {
			t, ok = fi.ModTime(), true
		}
	}
	return t, ok, nil
}

// days lists the calendar days that have a snapshot file for source, oldest first.
func (s *FileStore) days(source string) ([]time.Time, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, source+"_*.json"))
	if err != nil {
		return nil, err
	}
	var days []time.Time
	for _, m := range matches {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), source+"_"), ".json")
		d, err := time.ParseInLocation(dayLayout, name, time.Local)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

func (s *FileStore) read(path string) (models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return models.Snapshot{}, err
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, filepath.Base(path), err)
	}

	ts, ok := parseTimestamp(rec.Timestamp)
	if !ok {
		fi, err := os.Stat(path)
		if err != nil {
			return models.Snapshot{}, err
		}
		ts = fi.ModTime()
	}
	return models.Snapshot{Source: rec.Source, Timestamp: ts, Trends: rec.Trends}, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999", // naive ISO-8601, read as local time
	"2006-01-02 15:04:05",
}

func parseTimestamp(v string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
