package log

import (
	"bytes"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
)

var _UnknownCallerInfo = &callerInfo{
	file: "unknown",
}

type callerInfo struct {
	file string
	line int
}

func newCallerInfo(file string, line int) *callerInfo {
	return &callerInfo{
		file: file,
		line: line,
	}
}

func (c *callerInfo) String() string {
	return filepath.Base(c.file) + ":" + strconv.Itoa(c.line)
}

// callerCache maps program counters to resolved locations so that hot log
// statements only pay for runtime.Caller once.
var callerCache sync.Map

// getCallerInfo resolves the source location skip frames above its caller.
func getCallerInfo(skip int) *callerInfo {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return _UnknownCallerInfo
	}
	if cached, found := callerCache.Load(pc); found {
		return cached.(*callerInfo)
	}
	c := newCallerInfo(file, line)
	callerCache.Store(pc, c)
	return c
}

var _goroutinePrefix = []byte("goroutine ")

// goroutineID returns the id of the calling goroutine. It is only used as an
// opaque identifier for log lines; 0 means the id could not be read.
func goroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, _goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
