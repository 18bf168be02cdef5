package pluginhost

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// RestartTrigger is called with the library path that changed; rtsynd's
// run command translates this into a RestartPluginMsg for every
// workspace plugin of the kind whose installed-plugins registry record
// points at that library (spec §4.2: "hot-reload occurs by replacing
// the file and issuing a restart").
type RestartTrigger func(libraryPath string)

// Watcher observes a set of plugin library directories and fires
// RestartTrigger whenever a watched library file is replaced on disk.
type Watcher struct {
	fsw     *fsnotify.Watcher
	trigger RestartTrigger
	log     *slog.Logger
}

// NewWatcher starts watching dirs; call Close when done.
func NewWatcher(dirs []string, trigger RestartTrigger, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	if log == nil {
		log = slog.Default()
	}
	w := &Watcher{fsw: fsw, trigger: trigger, log: log}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if ext := filepath.Ext(ev.Name); ext != sharedLibraryExt {
				continue
			}
			w.log.Info("plugin library changed on disk, triggering restart", "path", ev.Name)
			w.trigger(ev.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("plugin library watcher error", "error", err)
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error { return w.fsw.Close() }
