package logger

import "strings"

// Level governs which messages a logger lets through: everything below the
// configured level is dropped.
type Level uint32

// The levels, from chattiest to silent.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

var levelStrs = [...]string{"TRC", "DBG", "INF", "WRN", "ERR", "CRT", "OFF"}

var levelsByName = map[string]Level{
	"trace":    LevelTrace,
	"trc":      LevelTrace,
	"debug":    LevelDebug,
	"dbg":      LevelDebug,
	"info":     LevelInfo,
	"inf":      LevelInfo,
	"warn":     LevelWarn,
	"wrn":      LevelWarn,
	"error":    LevelError,
	"err":      LevelError,
	"critical": LevelCritical,
	"crt":      LevelCritical,
	"off":      LevelOff,
}

// LevelFromString parses a level from its long or short name, case
// insensitively. Input that names no level yields LevelInfo and false.
func LevelFromString(s string) (l Level, ok bool) {
	level, ok := levelsByName[strings.ToLower(s)]
	if !ok {
		return LevelInfo, false
	}
	return level, true
}

// String returns the three-letter tag the level is printed with in log
// lines. Levels that produce no output at all print as "OFF".
func (l Level) String() string {
	if l >= LevelOff {
		return "OFF"
	}
	return levelStrs[l]
}
