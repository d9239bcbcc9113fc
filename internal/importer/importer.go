package importer

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"photofind/internal/logging"
	"photofind/internal/mediatypes"
	"photofind/internal/metrics"
	"photofind/internal/registry"
	"photofind/internal/workers"

	"github.com/cespare/xxhash/v2"
)

// importerWorkerLimit caps the pool; sidecar imports are small reads plus
// SQLite writes, so more workers than this just contend on the database.
const importerWorkerLimit = 8

// Importer scans a directory tree for XMP sidecars and loads their metadata
// into the registry. Unchanged files are detected by content hash and
// skipped, so repeat runs over a large library are cheap.
type Importer struct {
	registry   *registry.Registry
	scanDir    string
	numWorkers int
}

// Stats summarizes one import run.
type Stats struct {
	Found    int64
	Imported int64
	Skipped  int64
	Errors   int64
}

// New builds an Importer over scanDir writing into reg.
func New(reg *registry.Registry, scanDir string) *Importer {
	return &Importer{
		registry:   reg,
		scanDir:    scanDir,
		numWorkers: workers.ForIO(importerWorkerLimit),
	}
}

// Run walks the scan directory once and imports every sidecar it finds.
// Individual file failures are counted, not fatal.
func (imp *Importer) Run() Stats {
	start := time.Now()
	logging.Info("Starting sidecar import from %s with %d workers", imp.scanDir, imp.numWorkers)

	paths := imp.collectSidecars()
	logging.Info("Found %d sidecar files to process", len(paths))

	var stats Stats
	stats.Found = int64(len(paths))
	if len(paths) == 0 {
		logging.Warn("No sidecar files found in %s", imp.scanDir)
		imp.finishRun(start, &stats)
		return stats
	}

	var imported, skipped, errored atomic.Int64
	jobs := make(chan string, len(paths))
	var wg sync.WaitGroup

	for i := 0; i < imp.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				switch imp.processSidecar(path) {
				case outcomeImported:
					imported.Add(1)
					metrics.ImporterFilesProcessed.Inc()
				case outcomeSkipped:
					skipped.Add(1)
					metrics.ImporterFilesSkipped.Inc()
				case outcomeError:
					errored.Add(1)
					metrics.ImporterErrors.Inc()
				}
			}
		}()
	}

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	stats.Imported = imported.Load()
	stats.Skipped = skipped.Load()
	stats.Errors = errored.Load()
	imp.finishRun(start, &stats)
	return stats
}

func (imp *Importer) finishRun(start time.Time, stats *Stats) {
	duration := time.Since(start)
	metrics.ImporterLastRunTimestamp.SetToCurrentTime()
	metrics.ImporterRunDuration.Set(duration.Seconds())
	logging.Info("Sidecar import complete in %v: %d imported, %d unchanged, %d errors",
		duration, stats.Imported, stats.Skipped, stats.Errors)
}

// collectSidecars walks the scan directory for .xmp files. Access errors are
// logged and walking continues; a single unreadable subtree should not sink
// the whole import.
func (imp *Importer) collectSidecars() []string {
	var paths []string
	err := filepath.WalkDir(imp.scanDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && d.Name() != "." {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), mediatypes.SidecarSuffix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		logging.Error("Walking scan directory %s: %v", imp.scanDir, err)
	}
	return paths
}

type outcome int

const (
	outcomeImported outcome = iota
	outcomeSkipped
	outcomeError
)

// processSidecar imports one sidecar: hash the contents, skip when the
// registry already has that hash, otherwise parse and replace the file's
// metadata rows.
func (imp *Importer) processSidecar(path string) outcome {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Error("Reading sidecar %s: %v", path, err)
		return outcomeError
	}

	hash := xxhash.Sum64(data)

	_, oldHash, found, err := imp.registry.LookupFile(path)
	if err != nil {
		logging.Error("Looking up sidecar %s: %v", path, err)
		return outcomeError
	}
	if found && oldHash == hash {
		logging.Debug("Sidecar %s unchanged (hash %#x)", path, hash)
		return outcomeSkipped
	}

	kv, err := extractKeyValues(data)
	if err != nil {
		logging.Error("Parsing sidecar %s: %v", path, err)
		return outcomeError
	}

	rows := sidecarRows(kv)
	rows = append(rows, exifRows(mediatypes.StripSidecar(path))...)

	id, err := imp.registry.UpsertFile(path, hash)
	if err != nil {
		logging.Error("Recording sidecar %s: %v", path, err)
		return outcomeError
	}
	if err := imp.registry.ReplaceKeyValues(id, rows); err != nil {
		logging.Error("Writing metadata for %s: %v", path, err)
		return outcomeError
	}

	if found {
		logging.Info("Updated sidecar %s (%d metadata rows)", path, len(rows))
	} else {
		logging.Debug("Imported sidecar %s (%d metadata rows)", path, len(rows))
	}
	return outcomeImported
}
