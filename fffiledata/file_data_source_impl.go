package fffiledata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"gopkg.in/ghodss/yaml.v1"

	"github.com/ffsync/go-server-sdk/ffmodel"
	"github.com/ffsync/go-server-sdk/subsystems"
)

type fileDataSource struct {
	absFilePaths          []string
	duplicateKeysHandling DuplicateKeysHandling
	loggers               ldlog.Loggers
	watching              bool
	lock                  sync.Mutex
	snapshot              *fileData
	stale                 bool
	flagsServed           bool
	segmentsServed        bool
	closeOnce             sync.Once
	closeReloaderCh       chan struct{}
}

type fileData struct {
	flags    []ffmodel.FeatureConfig
	segments []ffmodel.Segment
}

func newFileDataSource(
	loggers ldlog.Loggers,
	filePaths []string,
	duplicateKeysHandling DuplicateKeysHandling,
	reloaderFactory ReloaderFactory,
) (*fileDataSource, error) {
	if len(filePaths) == 0 {
		return nil, errors.New("no data files were specified")
	}
	abs, err := absFilePaths(filePaths)
	if err != nil {
		// COVERAGE: there's no reliable cross-platform way to simulate an invalid path in unit tests
		return nil, err
	}

	fs := &fileDataSource{
		absFilePaths:          abs,
		duplicateKeysHandling: duplicateKeysHandling,
		loggers:               loggers,
	}
	fs.loggers.SetPrefix("FileDataSource:")

	if reloaderFactory != nil {
		fs.closeReloaderCh = make(chan struct{})
		if err := reloaderFactory(fs.absFilePaths, fs.loggers, fs.filesChanged, fs.closeReloaderCh); err != nil {
			fs.loggers.Errorf("Unable to start reloader, files will be read on every poll: %s", err)
		} else {
			fs.watching = true
		}
	}
	return fs, nil
}

func (fs *fileDataSource) FetchFlags(context.Context, string, string) ([]ffmodel.FeatureConfig, error) {
	data, err := fs.getData(&fs.flagsServed)
	if err != nil {
		return nil, err
	}
	return data.flags, nil
}

func (fs *fileDataSource) FetchSegments(context.Context, string, string) ([]ffmodel.Segment, error) {
	data, err := fs.getData(&fs.segmentsServed)
	if err != nil {
		return nil, err
	}
	return data.segments, nil
}

// Close stops the reloader, if any.
func (fs *fileDataSource) Close() error {
	fs.closeOnce.Do(func() {
		if fs.closeReloaderCh != nil {
			close(fs.closeReloaderCh)
		}
	})
	return nil
}

// Returns the snapshot for one category of a refresh cycle. Each snapshot is handed to at most one
// flags fetch and one segments fetch, so both halves of a cycle see the same file contents and the
// files are read once per cycle. With a reloader, a snapshot is reused across cycles until the
// reloader reports a change. served must point to the calling category's flag; fs.lock guards it.
func (fs *fileDataSource) getData(served *bool) (*fileData, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	reuse := fs.snapshot != nil && (!*served || (fs.watching && !fs.stale))
	if !reuse {
		data, err := fs.load()
		if err != nil {
			fs.loggers.Errorf("Unable to load flags: %s", err)
			return nil, &subsystems.FetchError{Message: "unable to load flag data files", Err: err}
		}
		fs.snapshot, fs.stale = data, false
		fs.flagsServed, fs.segmentsServed = false, false
	}
	*served = true
	return fs.snapshot, nil
}

func (fs *fileDataSource) filesChanged(paths []string) {
	fs.lock.Lock()
	fs.stale = true
	fs.lock.Unlock()
	fs.loggers.Infof("Data files changed, reloading at next poll: %s", strings.Join(paths, ", "))
}

func (fs *fileDataSource) load() (*fileData, error) {
	all := &fileData{}
	seenFlags := make(map[string]bool)
	seenSegments := make(map[string]bool)
	for _, path := range fs.absFilePaths {
		data, err := readFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s [%s]", err, path)
		}
		for _, f := range data.flags {
			if seenFlags[f.Feature] {
				if fs.duplicateKeysHandling == DuplicateKeysIgnoreAllButFirst {
					continue
				}
				return nil, fmt.Errorf("flag '%s' is specified by multiple files", f.Feature)
			}
			seenFlags[f.Feature] = true
			all.flags = append(all.flags, f)
		}
		for _, s := range data.segments {
			if seenSegments[s.Identifier] {
				if fs.duplicateKeysHandling == DuplicateKeysIgnoreAllButFirst {
					continue
				}
				return nil, fmt.Errorf("segment '%s' is specified by multiple files", s.Identifier)
			}
			seenSegments[s.Identifier] = true
			all.segments = append(all.segments, s)
		}
	}
	return all, nil
}

func absFilePaths(paths []string) ([]string, error) {
	absPaths := make([]string, 0, len(paths))
	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("unable to determine absolute path for '%s'", p)
		}
		absPaths = append(absPaths, absPath)
	}
	return absPaths, nil
}

func readFile(path string) (*fileData, error) {
	rawData, err := os.ReadFile(path) // nolint:gosec // G304: ok to read file into variable
	if err != nil {
		return nil, fmt.Errorf("unable to read file: %s", err)
	}
	if !detectJSON(rawData) {
		if rawData, err = yaml.YAMLToJSON(rawData); err != nil {
			return nil, fmt.Errorf("error parsing file: %s", err)
		}
	}
	data, err := parseFileData(rawData)
	if err != nil {
		return nil, fmt.Errorf("error parsing file: %s", err)
	}
	return data, nil
}

func parseFileData(rawData []byte) (*fileData, error) {
	var data fileData
	r := jreader.NewReader(rawData)
	for obj := r.ObjectOrNull(); obj.Next(); {
		switch string(obj.Name()) {
		case "flags":
			data.flags = ffmodel.ReadFeatureConfigs(&r)
		case "segments":
			data.segments = ffmodel.ReadSegments(&r)
		default:
			r.SkipValue()
		}
	}
	if err := r.Error(); err != nil {
		return nil, err
	}
	return &data, nil
}

func detectJSON(rawData []byte) bool {
	// A valid JSON file for our purposes must be an object, i.e. it must start with '{'
	return strings.HasPrefix(strings.TrimLeftFunc(string(rawData), unicode.IsSpace), "{")
}
