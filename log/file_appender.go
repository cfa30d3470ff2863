package log

import (
	"errors"
	"os"
	"path/filepath"

	filelock "github.com/linchenxuan/sinklog/utils/file"
)

var errEmptyFilename = errors.New("split policy returned an empty filename")

// _lockFileName is the lock file created in the base path of exclusive appenders.
const _lockFileName = ".lock"

// FileAppender writes each event as one durable, appended line. Before every
// write it asks its SplitPolicy for the current filename and re-opens the file
// when the name changes. Its threshold defaults to InfoLevel.
type FileAppender struct {
	appenderBase
	basePath  string      // root directory of all files
	path      string      // directory of the current file
	fileName  string      // name of the open file, empty when none is open
	fileFd    *os.File    // open handle
	splitSize int64       // size threshold handed to the policy
	policy    SplitPolicy // installed lazily when nil
	exclusive bool        // hold an advisory lock on basePath while writing
	dirLock   *filelock.FileLock
}

// NewFileAppender creates a FileAppender rooted at "<executable dir>/log".
func NewFileAppender() *FileAppender {
	a := &FileAppender{
		splitSize: DefaultSplitSize,
	}
	a.basePath = defaultBasePath()
	a.path = a.basePath
	a.init(InfoLevel)
	return a
}

// SetBasePath changes the root directory. The current file is closed so the
// next write opens a file under the new root.
func (a *FileAppender) SetBasePath(basePath string) {
	a.lock.Lock()
	defer a.lock.Unlock()

	_ = a.closeFileLocked()
	a.releaseDirLock()
	a.basePath = filepath.Clean(basePath)
	a.path = a.basePath
	a.fileName = ""
}

// BasePath returns the root directory.
func (a *FileAppender) BasePath() string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.basePath
}

// Path returns the directory of the current file.
func (a *FileAppender) Path() string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.path
}

// Filename returns the name of the current file, empty before the first write.
func (a *FileAppender) Filename() string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.fileName
}

// SetSplitPolicy replaces the rotation policy. nil restores the default policy.
func (a *FileAppender) SetSplitPolicy(p SplitPolicy) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.policy = p
}

// SetSplitSize changes the size threshold used by the policy. Non-positive
// values restore DefaultSplitSize.
func (a *FileAppender) SetSplitSize(size int64) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if size <= 0 {
		size = DefaultSplitSize
	}
	a.splitSize = size
}

// SetExclusive makes the appender take a non-blocking flock on
// "<basePath>/.lock" before it opens its first file, so that two processes
// never append to the same tree. Writes fail while another process holds it.
func (a *FileAppender) SetExclusive(exclusive bool) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.exclusive = exclusive
	if !exclusive {
		a.releaseDirLock()
	}
}

// Write implements Appender.
func (a *FileAppender) Write(e *Event) bool {
	return a.write(e, a.flush)
}

// Close implements Appender. It syncs and closes the open file.
func (a *FileAppender) Close() error {
	return a.close(func() error {
		err := a.closeFileLocked()
		a.releaseDirLock()
		return err
	})
}

func (a *FileAppender) flush(e *Event) bool {
	if err := a.resetFile(e); err != nil {
		return false
	}

	line := a.getFormatter(e).Format(e)
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	if _, err := a.fileFd.Write(buf); err != nil {
		return false
	}
	return a.fileFd.Sync() == nil
}

// resetFile makes sure the file chosen by the policy is the open one.
// Must be called with lock held.
func (a *FileAppender) resetFile(e *Event) error {
	if a.policy == nil {
		a.policy = DefaultSplitPolicy
	}

	newFileName := a.policy(e, fileState{a})
	if newFileName == "" {
		return errEmptyFilename
	}
	if newFileName == a.fileName && a.fileFd != nil {
		return nil
	}

	_ = a.closeFileLocked()

	if a.exclusive && a.dirLock == nil {
		l := filelock.NewFileLock(filepath.Join(a.basePath, _lockFileName))
		if err := l.Lock(); err != nil {
			return err
		}
		a.dirLock = l
	}

	fd, err := openLogFile(filepath.Join(a.path, newFileName))
	if err != nil {
		return err
	}
	a.fileFd = fd
	a.fileName = newFileName
	return nil
}

func (a *FileAppender) releaseDirLock() {
	if a.dirLock != nil {
		_ = a.dirLock.Unlock()
		a.dirLock = nil
	}
}

func (a *FileAppender) closeFileLocked() error {
	if a.fileFd == nil {
		return nil
	}
	_ = a.fileFd.Sync()
	err := a.fileFd.Close()
	a.fileFd = nil
	return err
}

// fileState exposes the appender to its policy without re-taking the lock.
type fileState struct {
	a *FileAppender
}

func (s fileState) BasePath() string { return s.a.basePath }
func (s fileState) Path() string     { return s.a.path }
func (s fileState) SetPath(p string) { s.a.path = p }
func (s fileState) Filename() string { return s.a.fileName }
func (s fileState) SplitSize() int64 { return s.a.splitSize }

func (s fileState) Size() int64 {
	if s.a.fileFd == nil {
		return 0
	}
	fi, err := s.a.fileFd.Stat()
	if err != nil {
		return 0
	}
	return fi.Size()
}
