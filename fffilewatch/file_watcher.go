package fffilewatch

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"golang.org/x/exp/slices"
)

const (
	// Editors and copy tools often produce several events for one save; changes are collected for this
	// long after the last event before being reported.
	settleDelay = 100 * time.Millisecond

	// How often to retry watching a directory that does not exist yet.
	retryInterval = time.Second
)

type dirWatcher struct {
	fsw          *fsnotify.Watcher
	loggers      ldlog.Loggers
	filesChanged func([]string)
	paths        []string

	// Data files keyed by their path with symlinks in the directory resolved, which is the form
	// fsnotify reports. The value is the path as configured.
	files map[string]string
	// Directories containing data files, and whether each is currently watched.
	dirs map[string]bool
}

// WatchFiles watches the directories containing the given files and calls filesChanged, with the
// configured paths of the affected files, whenever any of them is created, written, renamed or
// removed. Bursts of events are reported together once they have settled. Its signature matches
// fffiledata.ReloaderFactory.
//
// A directory that does not exist yet is retried every second; once it can be watched, its files are
// reported as changed.
func WatchFiles(paths []string, loggers ldlog.Loggers, filesChanged func([]string), closeCh <-chan struct{}) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create file watcher: %w", err)
	}
	w := &dirWatcher{
		fsw:          fsw,
		loggers:      loggers,
		filesChanged: filesChanged,
		paths:        paths,
		files:        make(map[string]string),
		dirs:         make(map[string]bool),
	}
	for _, p := range paths {
		w.dirs[filepath.Dir(p)] = false
	}
	// Watches are in place before WatchFiles returns, so the caller's first read cannot miss a change.
	w.watchDirs()
	go w.run(closeCh)
	return nil
}

// Starts watching every directory that isn't watched yet, and returns the configured paths of the files
// in directories that were newly watched.
func (w *dirWatcher) watchDirs() []string {
	var added []string
	for dir, watched := range w.dirs {
		if watched {
			continue
		}
		realDir, err := filepath.EvalSymlinks(dir)
		if err == nil {
			err = w.fsw.Add(realDir)
		}
		if err != nil {
			if w.loggers.IsDebugEnabled() {
				w.loggers.Debugf("Unable to watch %s yet: %s", dir, err)
			}
			continue
		}
		w.dirs[dir] = true
		added = append(added, w.addFilesIn(dir, realDir)...)
	}
	return added
}

func (w *dirWatcher) addFilesIn(dir, realDir string) []string {
	var added []string
	for _, configured := range w.configuredPathsIn(dir) {
		w.files[filepath.Join(realDir, filepath.Base(configured))] = configured
		added = append(added, configured)
	}
	return added
}

func (w *dirWatcher) configuredPathsIn(dir string) []string {
	var ret []string
	for _, configured := range w.paths {
		if filepath.Dir(configured) == dir {
			ret = append(ret, configured)
		}
	}
	return ret
}

func (w *dirWatcher) allWatched() bool {
	for _, watched := range w.dirs {
		if !watched {
			return false
		}
	}
	return true
}

func (w *dirWatcher) run(closeCh <-chan struct{}) {
	pending := make(map[string]struct{})
	settle := time.NewTimer(settleDelay)
	settle.Stop()
	retry := time.NewTicker(retryInterval)
	defer retry.Stop()

	for {
		var retryCh <-chan time.Time
		if !w.allWatched() {
			retryCh = retry.C
		}
		select {
		case <-closeCh:
			settle.Stop()
			if err := w.fsw.Close(); err != nil {
				w.loggers.Errorf("Error closing file watcher: %s", err)
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			configured, isDataFile := w.files[filepath.Clean(event.Name)]
			if !isDataFile {
				break
			}
			pending[configured] = struct{}{}
			settle.Reset(settleDelay)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.loggers.Errorf("File watcher error: %s", err)

		case <-retryCh:
			if added := w.watchDirs(); len(added) > 0 {
				w.report(added)
			}

		case <-settle.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			pending = make(map[string]struct{})
			w.report(changed)
		}
	}
}

func (w *dirWatcher) report(paths []string) {
	slices.Sort(paths)
	w.filesChanged(paths)
}
