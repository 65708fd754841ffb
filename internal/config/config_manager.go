package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"essayproxy-go/internal/events"

	log "github.com/sirupsen/logrus"
)

// ConfigManager owns the current configuration snapshot and reloads it when
// the backing file changes. Readers call Current for every request.
type ConfigManager struct {
	mu         sync.RWMutex
	config     *Config
	configPath string
	stopCh     chan struct{}
	stopOnce   sync.Once
	onChange   []func(*Config)
	lastMod    time.Time
	publisher  events.Publisher
	loader     func(string) (*Config, error)
}

// NewConfigManager loads the initial configuration. An empty path or a
// missing file means defaults plus environment.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	return newConfigManager(configPath, Load)
}

func newConfigManager(configPath string, loader func(string) (*Config, error)) (*ConfigManager, error) {
	if strings.HasPrefix(configPath, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, configPath[1:])
	}

	cm := &ConfigManager{
		configPath: configPath,
		stopCh:     make(chan struct{}),
		loader:     loader,
	}

	cfg, err := loader(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cm.config = cfg
	cm.lastMod = cm.statModTime()
	return cm, nil
}

// Watch starts hot reload of the config file. It is a no-op when there is
// no file on disk.
func (cm *ConfigManager) Watch() {
	if cm.configPath == "" {
		return
	}
	if _, err := os.Stat(cm.configPath); err != nil {
		return
	}
	cm.startWatcher()
}

// Current returns a copy of the active configuration.
func (cm *ConfigManager) Current() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.config == nil {
		return Default()
	}
	return cm.config.Clone()
}

// Path returns the watched file path.
func (cm *ConfigManager) Path() string { return cm.configPath }

// OnChange registers a callback for configuration changes
func (cm *ConfigManager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.onChange = append(cm.onChange, fn)
}

// SetEventPublisher wires the event hub used to broadcast config updates.
func (cm *ConfigManager) SetEventPublisher(p events.Publisher) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.publisher = p
}

// Reload re-reads the file and environment. On failure the previous
// snapshot stays active.
func (cm *ConfigManager) Reload() error {
	next, err := cm.loader(cm.configPath)
	if err != nil {
		return err
	}
	cm.mu.Lock()
	prev := cm.config
	cm.config = next
	cm.lastMod = cm.statModTime()
	cm.mu.Unlock()

	cm.emitChange(prev, next.Clone())
	logConfigChanges(prev, next)
	return nil
}

// Close stops the watcher.
func (cm *ConfigManager) Close() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}

func (cm *ConfigManager) statModTime() time.Time {
	if cm.configPath == "" {
		return time.Time{}
	}
	if info, err := os.Stat(cm.configPath); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}

func (cm *ConfigManager) listenersSnapshot() ([]func(*Config), events.Publisher, string) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	callbacks := make([]func(*Config), len(cm.onChange))
	copy(callbacks, cm.onChange)
	return callbacks, cm.publisher, cm.configPath
}

func (cm *ConfigManager) emitChange(oldCfg, newCfg *Config) {
	callbacks, publisher, path := cm.listenersSnapshot()

	for _, fn := range callbacks {
		fn(newCfg)
	}

	if publisher != nil && newCfg != nil {
		event := ConfigChangeEvent{
			Path:      path,
			UpdatedAt: time.Now().UTC(),
			PoolSize:  len(newCfg.Credentials()),
			Backend:   newCfg.Storage.Backend,
		}
		if oldCfg != nil {
			event.PreviousPoolSize = len(oldCfg.Credentials())
		}
		publisher.Publish(context.Background(), events.TopicConfigUpdated, event, nil)
	}
}

// ConfigChangeEvent is the payload broadcast when configuration changes.
// It never carries secrets.
type ConfigChangeEvent struct {
	Path             string    `json:"path"`
	UpdatedAt        time.Time `json:"updated_at"`
	PoolSize         int       `json:"pool_size"`
	PreviousPoolSize int       `json:"previous_pool_size"`
	Backend          string    `json:"backend"`
}

func logConfigChanges(old, new *Config) {
	if old == nil || new == nil {
		return
	}
	if o, n := len(old.Credentials()), len(new.Credentials()); o != n {
		log.WithFields(log.Fields{"field": "gemini_api_keys", "old_count": o, "new_count": n}).Info("config changed")
	}
	if old.Security.Debug != new.Security.Debug {
		log.WithFields(log.Fields{"field": "debug", "old": old.Security.Debug, "new": new.Security.Debug}).Info("config changed")
	}
	if old.Storage.Backend != new.Storage.Backend {
		log.WithFields(log.Fields{"field": "index_store_backend", "old": old.Storage.Backend, "new": new.Storage.Backend}).
			Warn("config changed; the index store backend is only rebuilt on restart")
	}
	if old.Upstream.Model != new.Upstream.Model {
		log.WithFields(log.Fields{"field": "gemini_model", "old": old.Upstream.Model, "new": new.Upstream.Model}).Info("config changed")
	}
}
