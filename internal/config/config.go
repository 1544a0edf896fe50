// Package config loads the engine's configuration surface
// from a YAML file with environment-variable overrides, validates it,
// and supports hot reload via fsnotify for operators that rotate
// hot_tick_limit / shard counts without a restart.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jordigilh/ontoengine/internal/obserr"
)

// validate10 is the shared struct-tag validator instance, the same
// library the ingest DTO (pkg/ingest) is validated with — one validation
// story across both the configuration surface and the wire boundary.
var validate10 = validator.New()

// Config is the engine's full configuration surface, one field per
// documented option.
type Config struct {
	HotTickLimit         uint8         `yaml:"hot_tick_limit" validate:"required,min=1,max=8"`
	Shards               int           `yaml:"shards" validate:"required,min=1"`
	ReceiptRingCapacity  int           `yaml:"receipt_ring_capacity" validate:"required,min=1"`
	MonitorWindow        int           `yaml:"monitor_window" validate:"required,min=1"`
	ProofCacheCapacity   int           `yaml:"proof_cache_capacity" validate:"min=0"`
	ProofCacheTTL        time.Duration `yaml:"proof_cache_ttl_ms" validate:"min=0"`
	SMTTimeout           time.Duration `yaml:"smt_timeout_ms" validate:"min=0"`
	MultiInstanceHardCap int           `yaml:"multi_instance_hard_cap" validate:"required,min=1"`
	AuditHorizon         time.Duration `yaml:"audit_horizon" validate:"min=0"`
	MonitorBatchSize     int           `yaml:"monitor_batch_size" validate:"required,min=1"`
}

// Default returns the configuration surface's documented defaults.
func Default() *Config {
	return &Config{
		HotTickLimit:         8,
		Shards:               4,
		ReceiptRingCapacity:  4096,
		MonitorWindow:        1024,
		ProofCacheCapacity:   1000,
		ProofCacheTTL:        60 * time.Second,
		SMTTimeout:           100 * time.Millisecond,
		MultiInstanceHardCap: 64,
		AuditHorizon:         24 * time.Hour,
		MonitorBatchSize:     64,
	}
}

// Load reads, parses, applies environment overrides to, and validates a
// configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, obserr.FailedTo("read config file", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, obserr.FailedTo("parse config file", err)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, obserr.FailedTo("parse config file", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("HOT_TICK_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HOT_TICK_LIMIT: %w", err)
		}
		cfg.HotTickLimit = uint8(n)
	}
	if v := os.Getenv("SHARDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SHARDS: %w", err)
		}
		cfg.Shards = n
	}
	if v := os.Getenv("RECEIPT_RING_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RECEIPT_RING_CAPACITY: %w", err)
		}
		cfg.ReceiptRingCapacity = n
	}
	return nil
}

// validate checks cfg against its struct tags, translating the first
// failing field into a ConfigurationError naming the field and the
// violated constraint.
func validate(cfg *Config) error {
	if err := validate10.Struct(cfg); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok || len(verrs) == 0 {
			return obserr.ConfigurationError("config", err.Error())
		}
		fe := verrs[0]
		return obserr.ConfigurationError(fe.Field(), fmt.Sprintf("failed %q constraint", fe.Tag()))
	}
	return nil
}

// Watcher hot-reloads the configuration file, invoking onChange with each
// successfully parsed and validated update. Failed reloads are reported
// to the onError callback passed to Run, and the previous Config keeps
// serving.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
}

// NewWatcher starts watching path for changes.
func NewWatcher(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, obserr.FailedTo("start config watcher", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, obserr.FailedTo("watch config file", err)
	}
	return &Watcher{watcher: w, path: path}, nil
}

// Run blocks, invoking onChange on every write/create event until the
// watcher is closed. Parse/validation failures are reported via onError
// and do not stop the loop.
func (w *Watcher) Run(onChange func(*Config), onError func(error)) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				onError(err)
				continue
			}
			onChange(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			onError(err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
