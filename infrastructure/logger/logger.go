package logger

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// Logger is a subsystem logger. Log messages are filtered by the logger's
// level and forwarded to the owning Backend's write loop.
type Logger struct {
	lvl       Level // atomic
	tag       string
	b         *Backend
	writeChan chan<- logEntry
}

var (
	backendLog = NewBackend()

	subsystemsMutex sync.Mutex
	subsystems      = make(map[string]*Logger)
)

// RegisterSubSystem returns a logger for the given subsystem tag, creating it
// if it wasn't registered yet. Loggers for the same tag are shared.
func RegisterSubSystem(subsystem string) *Logger {
	subsystemsMutex.Lock()
	defer subsystemsMutex.Unlock()
	logger, ok := subsystems[subsystem]
	if !ok {
		logger = backendLog.Logger(subsystem)
		subsystems[subsystem] = logger
	}
	return logger
}

// InitLog attaches log file and error log file to the backend log and runs it.
func InitLog(logFile, errLogFile string) error {
	err := backendLog.AddLogFile(logFile, LevelTrace)
	if err != nil {
		return errors.Wrapf(err, "error adding log file %s as log rotator for level %s", logFile, LevelTrace)
	}
	err = backendLog.AddLogFile(errLogFile, LevelWarn)
	if err != nil {
		return errors.Wrapf(err, "error adding log file %s as log rotator for level %s", errLogFile, LevelWarn)
	}
	err = backendLog.AddLogWriter(os.Stdout, LevelInfo)
	if err != nil {
		return errors.Wrap(err, "error adding stdout to the logger")
	}
	return backendLog.Run()
}

// SetLogLevels sets the logging level for all of the subsystems to the given
// level. An appropriate error is returned if the level is invalid.
func SetLogLevels(logLevel string) error {
	level, ok := LevelFromString(logLevel)
	if !ok {
		return errors.Errorf("invalid log level %s", logLevel)
	}

	subsystemsMutex.Lock()
	defer subsystemsMutex.Unlock()
	for _, logger := range subsystems {
		logger.SetLevel(level)
	}
	return nil
}

// BackendLog returns the log backend all subsystem loggers write through.
func BackendLog() *Backend {
	return backendLog
}

// Level returns the current logging level of the logger.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32((*uint32)(&l.lvl)))
}

// SetLevel changes the logging level of the logger.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32((*uint32)(&l.lvl), uint32(level))
}

const calldepth = 3

// print outputs a log message to the backend write channel with the given
// level, formatted as: 2006-01-02 15:04:05.000 [TAG] message
func (l *Logger) print(level Level, args ...interface{}) {
	if l.Level() > level {
		return
	}
	l.write(level, fmt.Sprint(args...))
}

func (l *Logger) printf(level Level, format string, args ...interface{}) {
	if l.Level() > level {
		return
	}
	l.write(level, fmt.Sprintf(format, args...))
}

func (l *Logger) write(level Level, message string) {
	t := time.Now()

	var file string
	var line int
	if l.b.flag&(LogFlagShortFile|LogFlagLongFile) != 0 {
		var ok bool
		_, file, line, ok = runtime.Caller(calldepth)
		if !ok {
			file = "???"
			line = 0
		} else if l.b.flag&LogFlagShortFile != 0 {
			if i := strings.LastIndexByte(file, '/'); i >= 0 {
				file = file[i+1:]
			}
		}
	}

	buf := make([]byte, 0, normalLogSize)
	buf = t.AppendFormat(buf, "2006-01-02 15:04:05.000")
	buf = append(buf, " ["...)
	buf = append(buf, level.String()...)
	buf = append(buf, "] "...)
	buf = append(buf, l.tag...)
	buf = append(buf, ": "...)
	if file != "" {
		buf = append(buf, fmt.Sprintf("%s:%d ", file, line)...)
	}
	buf = append(buf, message...)
	if len(message) == 0 || message[len(message)-1] != '\n' {
		buf = append(buf, '\n')
	}
	l.writeChan <- logEntry{log: buf, level: level}
}

const normalLogSize = 512

// Tracef formats message according to format specifier and writes to the log
// with LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.printf(LevelTrace, format, args...)
}

// Trace formats message using the default formats for its operands and writes
// to the log with LevelTrace.
func (l *Logger) Trace(args ...interface{}) {
	l.print(LevelTrace, args...)
}

// Debugf formats message according to format specifier and writes to the log
// with LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.printf(LevelDebug, format, args...)
}

// Debug formats message using the default formats for its operands and writes
// to the log with LevelDebug.
func (l *Logger) Debug(args ...interface{}) {
	l.print(LevelDebug, args...)
}

// Infof formats message according to format specifier and writes to the log
// with LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.printf(LevelInfo, format, args...)
}

// Info formats message using the default formats for its operands and writes
// to the log with LevelInfo.
func (l *Logger) Info(args ...interface{}) {
	l.print(LevelInfo, args...)
}

// Warnf formats message according to format specifier and writes to the log
// with LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.printf(LevelWarn, format, args...)
}

// Warn formats message using the default formats for its operands and writes
// to the log with LevelWarn.
func (l *Logger) Warn(args ...interface{}) {
	l.print(LevelWarn, args...)
}

// Errorf formats message according to format specifier and writes to the log
// with LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.printf(LevelError, format, args...)
}

// Error formats message using the default formats for its operands and writes
// to the log with LevelError.
func (l *Logger) Error(args ...interface{}) {
	l.print(LevelError, args...)
}

// Criticalf formats message according to format specifier and writes to the
// log with LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.printf(LevelCritical, format, args...)
}

// Critical formats message using the default formats for its operands and
// writes to the log with LevelCritical.
func (l *Logger) Critical(args ...interface{}) {
	l.print(LevelCritical, args...)
}

// LogClosure is a closure that can be printed with %s to be used to
// generate expensive-to-create data for a detailed log level and avoid doing
// the work if the data isn't printed.
type LogClosure func() string

func (c LogClosure) String() string {
	return c()
}

// NewLogClosure returns a new closure over the passed function which allows
// it to be used as a parameter in a logging function that is only invoked when
// the logging level is such that the message will actually be logged.
func NewLogClosure(c func() string) LogClosure {
	return LogClosure(c)
}
