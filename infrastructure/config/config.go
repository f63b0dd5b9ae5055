package config

import (
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/casperdag/casperd/infrastructure/logger"
)

const (
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "casperd.log"
	defaultErrLogFilename = "casperd_err.log"
	defaultDataDirname    = "data"
)

// Flags holds the command-line options of a casperd node.
type Flags struct {
	ShowVersion             bool     `short:"V" long:"version" description:"Display version information and exit"`
	AppDir                  string   `short:"b" long:"appdir" description:"Directory to store block and log data"`
	LogLevel                string   `short:"d" long:"loglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	FaultToleranceThreshold *float64 `long:"faulttolerancethreshold" description:"Override the network's finality fault-tolerance threshold"`
	NetworkFlags
}

// Config defines the configuration options for casperd.
type Config struct {
	*Flags
}

func defaultFlags() *Flags {
	return &Flags{
		AppDir:   DefaultAppDir(),
		LogLevel: defaultLogLevel,
	}
}

// DefaultAppDir returns the default directory casperd keeps its data in.
func DefaultAppDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".casperd"
	}
	return filepath.Join(homeDir, ".casperd")
}

// LoadConfig initializes and parses the config using command line options.
func LoadConfig() (*Config, error) {
	cfgFlags := defaultFlags()
	parser := flags.NewParser(cfgFlags, flags.HelpFlag)
	_, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	err = cfgFlags.ResolveNetwork()
	if err != nil {
		return nil, err
	}
	if cfgFlags.FaultToleranceThreshold != nil {
		threshold := *cfgFlags.FaultToleranceThreshold
		if threshold < -1 || threshold >= 1 {
			return nil, errors.Errorf("the fault tolerance threshold %f is outside [-1, 1)",
				threshold)
		}
		// The network params are package globals; overriding works on a copy.
		overridden := *cfgFlags.ActiveNetParams
		overridden.FaultToleranceThreshold = threshold
		cfgFlags.ActiveNetParams = &overridden
	}
	if _, ok := logger.LevelFromString(cfgFlags.LogLevel); !ok {
		return nil, errors.Errorf("the given loglevel %q is invalid", cfgFlags.LogLevel)
	}
	return &Config{Flags: cfgFlags}, nil
}

// NetAppDir returns the network-specific application directory.
func (cfg *Config) NetAppDir() string {
	return filepath.Join(cfg.AppDir, cfg.ActiveNetParams.Name)
}

// LogDir returns the directory log files are rotated into.
func (cfg *Config) LogDir() string {
	return filepath.Join(cfg.NetAppDir(), defaultLogDirname)
}

// DataDir returns the directory the block database lives in.
func (cfg *Config) DataDir() string {
	return filepath.Join(cfg.NetAppDir(), defaultDataDirname)
}

// LogFile returns the path of the main log file.
func (cfg *Config) LogFile() string {
	return filepath.Join(cfg.LogDir(), defaultLogFilename)
}

// ErrLogFile returns the path of the error log file.
func (cfg *Config) ErrLogFile() string {
	return filepath.Join(cfg.LogDir(), defaultErrLogFilename)
}
