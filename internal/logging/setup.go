package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"essayproxy-go/internal/config"
	"essayproxy-go/internal/version"

	log "github.com/sirupsen/logrus"
)

const serviceName = "essayproxy"

var (
	logMux        sync.Mutex
	logFileHandle *os.File
	hookOnce      sync.Once
)

// Setup configures the global logrus logger from the current snapshot.
// Calling it again (after a config reload) swaps formatter, level and the
// log file; the previous file handle is closed.
func Setup(cfg *config.Config) error {
	logMux.Lock()
	defer logMux.Unlock()

	debug := cfg != nil && cfg.Security.Debug

	if debug {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339Nano})
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
		log.SetLevel(log.InfoLevel)
	}
	hookOnce.Do(func() { log.AddHook(serviceHook{}) })

	writers := []io.Writer{os.Stdout}
	if logFileHandle != nil {
		_ = logFileHandle.Close()
		logFileHandle = nil
	}
	if cfg != nil && cfg.Security.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Security.LogFile), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(cfg.Security.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFileHandle = file
		writers = append(writers, file)
	}

	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

// serviceHook stamps every entry with the service name and build version.
type serviceHook struct{}

func (serviceHook) Levels() []log.Level { return log.AllLevels }

func (serviceHook) Fire(e *log.Entry) error {
	if _, ok := e.Data["service"]; !ok {
		e.Data["service"] = serviceName
	}
	if _, ok := e.Data["version"]; !ok {
		e.Data["version"] = version.Version
	}
	return nil
}
