package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Defaults applied to the log file sink at startup.
const (
	defaultMaxLogSize  = 64 << 20
	defaultMaxLogAge   = 7 * 24 * time.Hour
	defaultKeepRotated = 5
	rotationTimeFormat = "20060102-150405"
)

// LogRotation decides when the log file is rolled over. It runs when the
// file is opened; a long-lived process keeps appending to one file.
type LogRotation struct {
	maxSize int64
	maxAge  time.Duration
	keep    int
	now     func() time.Time
}

func NewLogRotation(maxSize int64, maxAge time.Duration, keep int) *LogRotation {
	return &LogRotation{
		maxSize: maxSize,
		maxAge:  maxAge,
		keep:    keep,
		now:     time.Now,
	}
}

func (lr *LogRotation) ShouldRotate(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return false
	}

	if lr.maxSize > 0 && info.Size() >= lr.maxSize {
		return true
	}

	return lr.maxAge > 0 && lr.now().Sub(info.ModTime()) >= lr.maxAge
}

func (lr *LogRotation) Rotate(path string) (string, error) {
	timestamp := lr.now().Format(rotationTimeFormat)
	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]

	newPath := fmt.Sprintf("%s-%s%s", base, timestamp, ext)

	err := os.Rename(path, newPath)
	return newPath, err
}

// Prune removes the oldest rotated files beyond the keep count and
// returns how many were removed.
func (lr *LogRotation) Prune(path string) (int, error) {
	if lr.keep <= 0 {
		return 0, nil
	}
	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]

	matches, err := filepath.Glob(base + "-*" + ext)
	if err != nil {
		return 0, err
	}
	if len(matches) <= lr.keep {
		return 0, nil
	}

	// The timestamp suffix sorts chronologically.
	sort.Strings(matches)
	removed := 0
	for _, old := range matches[:len(matches)-lr.keep] {
		if err := os.Remove(old); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// prepare rotates and prunes path before it is opened for append.
func (lr *LogRotation) prepare(path string) error {
	if !lr.ShouldRotate(path) {
		return nil
	}
	if _, err := lr.Rotate(path); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}
	if _, err := lr.Prune(path); err != nil {
		return fmt.Errorf("prune rotated logs: %w", err)
	}
	return nil
}
