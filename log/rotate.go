package log

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// Default file permissions for log files and directories
	defaultFileMode = 0644
	defaultDirMode  = 0755

	// DefaultSplitSize is the size above which the default policy starts a new
	// file within the same day.
	DefaultSplitSize int64 = 10 << 20

	_dayLayout   = "2006-01-02"
	_splitLayout = "2006-01-02_15_04_05"
	_logExt      = ".log"
)

// SplitPolicy decides, before every write, which file currently represents a
// FileAppender's destination. Returning the current filename keeps the open
// file; any other name makes the appender close it and open the new one inside
// FileState.Path().
type SplitPolicy func(e *Event, st FileState) string

// FileState is the view of a FileAppender handed to its SplitPolicy.
// It is only valid for the duration of the policy call, which runs under the
// appender's lock.
type FileState interface {
	// BasePath is the root directory configured on the appender.
	BasePath() string
	// Path is the directory the next file will be opened in.
	Path() string
	// SetPath changes the directory the next file will be opened in.
	SetPath(p string)
	// Filename is the name of the currently open file, empty when none is open.
	Filename() string
	// Size is the size of the open file as reported by the filesystem.
	Size() int64
	// SplitSize is the size threshold configured on the appender.
	SplitSize() int64
}

// DefaultSplitPolicy buckets files by month directory and day, and splits a
// day's file by timestamp once it grows past the split size.
//
//	basePath/YYYY/MM/YYYY-MM-DD.log
//	basePath/YYYY/MM/YYYY-MM-DD_HH_MM_SS.log   (after the size threshold)
//
// Dates come from the event timestamp in UTC, so rotation only happens when an
// event of a new day arrives.
func DefaultSplitPolicy(e *Event, st FileState) string {
	t := e.Time().UTC()

	monthPath := monthDir(st.BasePath(), t)
	if monthPath != st.Path() {
		// A failure here surfaces when the file is opened.
		_ = os.MkdirAll(monthPath, defaultDirMode)
		st.SetPath(monthPath)
	}

	cur := st.Filename()
	day, ok := fileDay(cur)
	if !ok || !sameDay(day, t) {
		return dayFileName(t)
	}

	if st.Size() > st.SplitSize() {
		return splitFileName(t)
	}
	return cur
}

func monthDir(base string, t time.Time) string {
	return filepath.Join(base, fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", int(t.Month())))
}

func dayFileName(t time.Time) string {
	return t.Format(_dayLayout) + _logExt
}

func splitFileName(t time.Time) string {
	return t.Format(_splitLayout) + _logExt
}

// fileDay recovers the day a log file belongs to from the date prefix of its
// name. Both the daily and the split filenames start with YYYY-MM-DD.
func fileDay(name string) (time.Time, bool) {
	if len(name) < len(_dayLayout) {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation(_dayLayout, name[:len(_dayLayout)], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// openLogFile opens filePath for appending, creating it and its parent
// directories when missing. Existing content is never truncated.
func openLogFile(filePath string) (*os.File, error) {
	dir := filepath.Dir(filePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}

	fd, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return fd, nil
}

// defaultBasePath returns the "log" directory next to the running executable,
// or "./log" when the executable path is unknown.
func defaultBasePath() string {
	exe, err := os.Executable()
	if err != nil {
		return "log"
	}
	return filepath.Join(filepath.Dir(exe), "log")
}
