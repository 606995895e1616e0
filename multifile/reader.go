package multifile

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/flowshard/core/hashutil"
	"github.com/flowshard/core/pipe"
	"github.com/flowshard/core/pipeerr"
	"github.com/flowshard/core/schedule"
)

// PipeSupplierFactory builds a sync pipe over a file's contents streamed
// from the bucket. It is used only when DownloadFirst is false; the
// downloadFirst path calls LocalPipeSupplierFactory instead.
type PipeSupplierFactory[T any] func(r SizedReadCloser, meta FileMeta) (pipe.Sync[T], error)

// LocalPipeSupplierFactory builds a sync pipe over a file already staged
// on local disk, used for the downloadFirst path.
type LocalPipeSupplierFactory[T any] func(localPath string, meta FileMeta) (pipe.Sync[T], error)

// Options configures the orchestrator.
type Options[T any] struct {
	Bucket        Bucket
	Prefix        string
	NameRegex     *regexp.Regexp
	Comparator    func(a, b FileMeta) int // default: lexicographic by name
	DownloadFirst bool
	TempDir       string // required when DownloadFirst
	ThreadCount   int

	PipeFactory      PipeSupplierFactory[T]
	LocalPipeFactory LocalPipeSupplierFactory[T] // required when DownloadFirst

	// Sharding (step 2): optional. When TotalWorkers > 0, only files whose
	// hash-shard equals WorkerID are selected.
	TotalWorkers int
	WorkerID     int
}

func defaultComparator(a, b FileMeta) int {
	switch {
	case a.Name < b.Name:
		return -1
	case a.Name > b.Name:
		return 1
	default:
		return 0
	}
}

// Build runs the orchestrator algorithm (spec §4.G steps 1-5) and returns
// an Async[T] pipeline: SyncToAsync wrapping one supplier per selected
// file, draining with Options.ThreadCount workers.
func Build[T any](opts Options[T]) (pipe.Async[T], error) {
	if opts.Comparator == nil {
		opts.Comparator = defaultComparator
	}
	if opts.ThreadCount < 1 {
		opts.ThreadCount = 1
	}

	// Step 1: list matching files.
	files, err := opts.Bucket.ListFiles(opts.Prefix, opts.NameRegex)
	if err != nil {
		return nil, pipeerr.Wrap(pipeerr.IO, "list files", err)
	}

	// Step 2: optional sharding by strong 64-bit hash of the file name.
	if opts.TotalWorkers > 0 {
		var shard []FileMeta
		for _, f := range files {
			if hashutil.Shard([]byte(f.Name), opts.TotalWorkers) == opts.WorkerID {
				shard = append(shard, f)
			}
		}
		files = shard
	}

	sort.Slice(files, func(i, j int) bool { return opts.Comparator(files[i], files[j]) < 0 })

	var suppliers []pipe.Supplier[T]
	if opts.DownloadFirst {
		suppliers, err = downloadFirstSuppliers(opts, files)
	} else {
		suppliers = streamingSuppliers(opts, files)
	}
	if err != nil {
		return nil, err
	}

	return pipe.NewSyncToAsync(suppliers, opts.ThreadCount), nil
}

// streamingSuppliers builds one lazy supplier per file that opens a sized
// stream directly from the bucket (step 4).
func streamingSuppliers[T any](opts Options[T], files []FileMeta) []pipe.Supplier[T] {
	suppliers := make([]pipe.Supplier[T], len(files))
	for i, f := range files {
		f := f
		suppliers[i] = func() (pipe.Sync[T], error) {
			stream, err := opts.Bucket.GetAsStream(f)
			if err != nil {
				return nil, pipeerr.Wrap(pipeerr.IO, "open stream for "+f.Name, err)
			}
			p, err := opts.PipeFactory(stream, f)
			if err != nil {
				stream.Close()
				return nil, err
			}
			return p, nil
		}
	}
	return suppliers
}

// downloadFirstSuppliers schedules parallel downloads to a temp folder
// (step 3), jobs weighted by file size via the static job scheduler, then
// returns one supplier per downloaded file that reads locally and deletes
// the temp file on close.
func downloadFirstSuppliers[T any](opts Options[T], files []FileMeta) ([]pipe.Supplier[T], error) {
	if len(files) == 0 {
		return nil, nil
	}

	jobs := make([]schedule.Job, len(files))
	byName := make(map[string]FileMeta, len(files))
	for i, f := range files {
		jobs[i] = schedule.Job{ID: f.Name, Weight: float64(f.Size)}
		byName[f.Name] = f
	}
	assignment := schedule.Schedule(jobs, opts.ThreadCount)

	type downloaded struct {
		meta      FileMeta
		localPath string
	}

	results := make([]downloaded, 0, len(files))
	var mu sync.Mutex
	var wg sync.WaitGroup
	errCh := make(chan error, opts.ThreadCount)

	for _, workerJobs := range assignment {
		workerJobs := workerJobs
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, j := range workerJobs {
				meta := byName[j.ID]
				local := filepath.Join(opts.TempDir, filepath.Base(meta.Name))
				if err := opts.Bucket.DownloadTo(meta, local); err != nil {
					errCh <- pipeerr.Wrap(pipeerr.IO, "download "+meta.Name, err)
					return
				}
				mu.Lock()
				results = append(results, downloaded{meta: meta, localPath: local})
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}

	// Restore the original comparator order: download order (by worker
	// assignment) is not the pipeline's read order.
	sort.Slice(results, func(i, j int) bool { return opts.Comparator(results[i].meta, results[j].meta) < 0 })

	suppliers := make([]pipe.Supplier[T], len(results))
	for i, r := range results {
		r := r
		suppliers[i] = func() (pipe.Sync[T], error) {
			p, err := opts.LocalPipeFactory(r.localPath, r.meta)
			if err != nil {
				return nil, err
			}
			return &deleteOnClose[T]{Sync: p, path: r.localPath}, nil
		}
	}
	return suppliers, nil
}

// deleteOnClose wraps a sync pipe over a downloaded temp file, removing
// the file once the pipe is closed.
type deleteOnClose[T any] struct {
	pipe.Sync[T]
	path string
}

func (d *deleteOnClose[T]) Close() error {
	err := d.Sync.Close()
	os.Remove(d.path)
	return err
}
