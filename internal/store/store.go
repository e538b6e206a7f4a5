// Package store persists telemetry records as JSON lines with daily
// file rotation. Data lands in ~/.kimtemp-data/.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kim-el/kimtemp/internal/sampler"
)

const (
	dirName    = ".kimtemp-data"
	timeLayout = "2006-01-02T15:04:05"
	fileLayout = "2006-01-02"
)

// DiskStore appends records to ~/.kimtemp-data/YYYY-MM-DD.jsonl, one
// timestamped record per line.
type DiskStore struct {
	dir     string
	current *os.File
	curDate string
}

// StoredRecord is one line from a log file.
type StoredRecord struct {
	Time   time.Time      `json:"-"`
	Stamp  string         `json:"time"`
	Record sampler.Record `json:"record"`
}

// New creates a disk store, creating the data directory if needed.
func New() (*DiskStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot find home dir: %w", err)
	}
	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create data dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Write appends one record to today's log file.
func (d *DiskStore) Write(rec sampler.Record, t time.Time) error {
	dateStr := t.Format(fileLayout)

	if d.curDate != dateStr || d.current == nil {
		d.Close()
		path := filepath.Join(d.dir, dateStr+".jsonl")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		d.current = f
		d.curDate = dateStr
	}

	line, err := json.Marshal(StoredRecord{Stamp: t.Format(timeLayout), Record: rec})
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = d.current.Write(line)
	return err
}

// Close closes the current file.
func (d *DiskStore) Close() {
	if d.current != nil {
		d.current.Close()
		d.current = nil
	}
}

// ListDays returns available log dates (newest first).
func ListDays(dir string) ([]string, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, dirName)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var days []string
	for i := len(entries) - 1; i >= 0; i-- {
		name := entries[i].Name()
		if strings.HasSuffix(name, ".jsonl") {
			days = append(days, strings.TrimSuffix(name, ".jsonl"))
		}
	}
	return days, nil
}

// LoadDay reads all records from a specific day's log file.
func LoadDay(day string) ([]StoredRecord, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, dirName, day+".jsonl")
	return LoadFile(path)
}

// LoadFile reads all records from a JSONL file. Unparseable lines are
// skipped.
func LoadFile(path string) ([]StoredRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []StoredRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var sr StoredRecord
		if err := json.Unmarshal(scanner.Bytes(), &sr); err != nil {
			continue
		}
		t, err := time.ParseInLocation(timeLayout, sr.Stamp, time.Local)
		if err != nil {
			continue
		}
		sr.Time = t
		records = append(records, sr)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// DataDir returns the path to the data directory.
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, dirName)
}
