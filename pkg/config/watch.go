package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher hot-reloads a Store from a config directory. fsnotify doesn't
// expose a distinct close-write operation, so a Write or Create event on
// either well-known file is treated as the reload trigger.
type Watcher struct {
	dir   string
	store *Store
	fsw   *fsnotify.Watcher
}

// NewWatcher starts watching dir (non-recursively) for changes to
// config.toml and icon.b64.
func NewWatcher(dir string, store *Store) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{dir: dir, store: store, fsw: fsw}, nil
}

// Run consumes filesystem events until the watcher is closed. It never
// lets a reload parse error clobber the current snapshot: on failure the
// prior snapshot stays in effect and the failure is logged.
func (w *Watcher) Run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logrus.WithError(err).Warn("config watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	switch filepath.Base(event.Name) {
	case configFileName:
		cfg, err := LoadConfig(ConfigPath(w.dir))
		if err != nil {
			logrus.WithError(err).Warn("reload config.toml failed, keeping prior snapshot")
			return
		}
		prev := w.store.Current()
		w.store.Replace(Snapshot{Config: cfg, Icon: prev.Icon, HasIcon: prev.HasIcon})
		logrus.WithField("file", event.Name).Info("reloaded config")
	case iconFileName:
		icon, ok, err := LoadIcon(IconPath(w.dir))
		if err != nil {
			logrus.WithError(err).Warn("reload icon.b64 failed, keeping prior snapshot")
			return
		}
		prev := w.store.Current()
		w.store.Replace(Snapshot{Config: prev.Config, Icon: icon, HasIcon: ok})
		logrus.WithField("file", event.Name).Info("reloaded icon")
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
