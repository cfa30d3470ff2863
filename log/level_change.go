package log

import (
	"path/filepath"
)

// LevelChangeEntry overrides the level of the log statements at one source
// location. The override is applied when the Logger is created, so it decides
// which appenders the event reaches.
type LevelChangeEntry struct {
	// FileName is the base name of the source file, e.g. "player.go".
	FileName string `mapstructure:"file" yaml:"file"`

	// LineNum selects one statement. 0 applies the level to the whole file.
	LineNum int `mapstructure:"line" yaml:"line"`

	// LogLevel is the level the statements are re-targeted to.
	LogLevel Level `mapstructure:"level" yaml:"level"`
}

// levelChange is an immutable lookup of location overrides. Cores swap the
// whole table when it changes.
type levelChange struct {
	changes map[string]map[int]Level
}

func newLevelChange(entries []LevelChangeEntry) *levelChange {
	c := &levelChange{
		changes: make(map[string]map[int]Level),
	}
	for _, entry := range entries {
		c.addChange(entry)
	}
	return c
}

func (lc *levelChange) empty() bool {
	return lc == nil || len(lc.changes) == 0
}

func (lc *levelChange) addChange(entry LevelChangeEntry) {
	name := filepath.Base(entry.FileName)
	if _, ok := lc.changes[name]; !ok {
		lc.changes[name] = make(map[int]Level)
	}
	lc.changes[name][entry.LineNum] = entry.LogLevel
}

// getLevel returns the override for file:line, the file-wide override, or level.
func (lc *levelChange) getLevel(file string, line int, level Level) Level {
	if lc.empty() {
		return level
	}
	lines, ok := lc.changes[filepath.Base(file)]
	if !ok {
		return level
	}
	if lv, ok := lines[line]; ok {
		return lv
	}
	if lv, ok := lines[0]; ok {
		return lv
	}
	return level
}
