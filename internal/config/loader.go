package config

import (
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Loader owns the viper instance and publishes reloaded configuration
// to subscribers when the config file changes on disk.
type Loader struct {
	v    *viper.Viper
	mu   sync.RWMutex
	cfg  Config
	subs []func(Config)
	errs []func(error)
}

// NewLoader reads the file named by METERTRACK_CONFIG (or the default
// search paths) plus the environment.
func NewLoader() (*Loader, error) {
	return Load(strings.TrimSpace(os.Getenv("METERTRACK_CONFIG")))
}

func Load(configFile string) (*Loader, error) {
	v, err := newViper(configFile)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	return &Loader{v: v, cfg: cfg}, nil
}

func (l *Loader) Current() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// OnChange registers fn to receive every successfully reloaded config.
func (l *Loader) OnChange(fn func(Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, fn)
}

// OnError registers fn to receive reload failures; the previous config stays active.
func (l *Loader) OnError(fn func(error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, fn)
}

// Watch starts watching the config file. It is a no-op when no file was read.
func (l *Loader) Watch() {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		_ = l.reload()
	})
	l.v.WatchConfig()
}

// Reload re-reads the config file and publishes the result.
func (l *Loader) Reload() error {
	if l.v.ConfigFileUsed() != "" {
		if err := l.v.ReadInConfig(); err != nil {
			l.publishErr(err)
			return err
		}
	}
	return l.reload()
}

func (l *Loader) publishErr(err error) {
	l.mu.RLock()
	handlers := append([]func(error){}, l.errs...)
	l.mu.RUnlock()
	for _, fn := range handlers {
		fn(err)
	}
}

func (l *Loader) reload() error {
	cfg, err := decode(l.v)
	if err != nil {
		l.publishErr(err)
		return err
	}

	l.mu.Lock()
	l.cfg = cfg
	subs := append([]func(Config){}, l.subs...)
	l.mu.Unlock()

	for _, fn := range subs {
		fn(cfg)
	}
	return nil
}
