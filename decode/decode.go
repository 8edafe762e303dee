// Package decode schedules a batch of .datc64 decodes across worker
// goroutines, one goroutine per batch rather than per file, each
// loading the schema once and running its share of the task list to
// completion before reporting back.
//
// Grounded on the teacher's pack/wad tag-dispatch workers conceptually
// (a registry-driven decode step per item) and, for the concurrency
// shape itself, on golang.org/x/sync/errgroup — the teacher has no
// worker-pool precedent of its own, so this follows the errgroup
// idiom the wider Go ecosystem uses for bounded fan-out with
// first-error propagation.
package decode

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mogaika/ggpkassets/datc64"
)

const maxInputSize = 100 * 1024 * 1024 // 100 MiB

// Task is one input file to decode.
type Task struct {
	InputPath string
	TableName string
}

// EventPhase discriminates the two progress events a worker emits per
// task.
type EventPhase string

const (
	PhaseStarting  EventPhase = "starting"
	PhaseCompleted EventPhase = "completed"
	PhaseSlow      EventPhase = "slow"
)

// ProgressEvent is emitted to the caller's callback, serialized by
// the driver so the callback never needs its own locking.
type ProgressEvent struct {
	Phase EventPhase
	Table string
	Path  string
}

// TaskResult is the per-task outcome of a batch run.
type TaskResult struct {
	Path       string
	Table      string
	Success    bool
	Cached     bool
	SkipReason string
	Error      string
	RowCount   int
}

// Options configures a Run.
type Options struct {
	Concurrency int
	UseCache    bool
	Limit       int
	Filter      *regexp.Regexp
	ProductBit  uint
}

// DefaultConcurrency is max(1, cpu_count-1), the driver's default
// when Options.Concurrency is left at zero.
func DefaultConcurrency() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// ProgressFunc receives a serialized stream of progress events.
type ProgressFunc func(ProgressEvent)

// Run partitions tasks into min(concurrency, len(tasks)) batches,
// each decoded by its own goroutine against its own *datc64.Schema
// instance, and returns every task's result once all batches finish.
// A stall detector fires a PhaseSlow event if no task completes for
// five seconds while work remains in flight.
func Run(ctx context.Context, schemaPath string, outputDir string, tasks []Task, opts Options, progress ProgressFunc) ([]TaskResult, error) {
	if opts.Limit > 0 && len(tasks) > opts.Limit {
		tasks = tasks[:opts.Limit]
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency()
	}
	if concurrency > len(tasks) {
		concurrency = len(tasks)
	}
	if concurrency == 0 {
		return nil, nil
	}

	var emitMu sync.Mutex
	emit := func(e ProgressEvent) {
		if progress == nil {
			return
		}
		emitMu.Lock()
		progress(e)
		emitMu.Unlock()
	}

	batches := partition(tasks, concurrency)

	var completed int64
	var inFlight int64
	stop := make(chan struct{})
	var stallWG sync.WaitGroup
	stallWG.Add(1)
	go runStallDetector(&completed, &inFlight, stop, &stallWG, emit)

	results := make([][]TaskResult, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			schema, err := datc64.LoadSchema(schemaPath)
			if err != nil {
				return err
			}
			res, err := runBatch(gctx, schema, outputDir, batch, opts, emit, &completed, &inFlight)
			results[i] = res
			return err
		})
	}
	err := g.Wait()
	close(stop)
	stallWG.Wait()

	var all []TaskResult
	for _, r := range results {
		all = append(all, r...)
	}
	return all, err
}

func partition(tasks []Task, batchCount int) [][]Task {
	batches := make([][]Task, batchCount)
	batchSize := (len(tasks) + batchCount - 1) / batchCount
	for i := 0; i < batchCount; i++ {
		start := i * batchSize
		if start >= len(tasks) {
			break
		}
		end := start + batchSize
		if end > len(tasks) {
			end = len(tasks)
		}
		batches[i] = tasks[start:end]
	}
	return batches
}

func runBatch(ctx context.Context, schema *datc64.Schema, outputDir string, batch []Task, opts Options, emit ProgressFunc, completed, inFlight *int64) ([]TaskResult, error) {
	results := make([]TaskResult, 0, len(batch))
	for _, task := range batch {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		if opts.Filter != nil && !opts.Filter.MatchString(task.InputPath) {
			continue
		}

		syncAdd(inFlight, 1)
		emit(ProgressEvent{Phase: PhaseStarting, Table: task.TableName, Path: task.InputPath})

		result := decodeOne(schema, outputDir, task, opts)

		syncAdd(inFlight, -1)
		syncAdd(completed, 1)
		emit(ProgressEvent{Phase: PhaseCompleted, Table: task.TableName, Path: task.InputPath})

		results = append(results, result)
	}
	return results, nil
}

func decodeOne(schema *datc64.Schema, outputDir string, task Task, opts Options) TaskResult {
	result := TaskResult{Path: task.InputPath, Table: task.TableName}

	info, err := os.Stat(task.InputPath)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if info.Size() == 0 {
		result.SkipReason = "empty"
		result.Success = true
		return result
	}
	if info.Size() > maxInputSize {
		result.SkipReason = "too large"
		result.Success = true
		return result
	}

	def, ok := schema.Lookup(task.TableName, opts.ProductBit)
	if !ok {
		result.SkipReason = "no schema"
		result.Success = true
		return result
	}

	outPath := filepath.Join(outputDir, task.TableName+".json")
	if cached, _ := isCached(task.InputPath, outPath, info, opts.UseCache); cached {
		result.Success = true
		result.Cached = true
		return result
	}

	data, err := os.ReadFile(task.InputPath)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	table, err := datc64.DecodeBuffer(data, def)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if err := writeJSON(outPath, table); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.RowCount = table.RowCount
	return result
}

func isCached(inputPath, outputPath string, inputInfo os.FileInfo, useCache bool) (bool, error) {
	if !useCache {
		return false, nil
	}
	outInfo, err := os.Stat(outputPath)
	if err != nil {
		return false, nil
	}
	return !outInfo.ModTime().Before(inputInfo.ModTime()), nil
}

func writeJSON(path string, table *datc64.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(table)
}

func syncAdd(p *int64, delta int64) {
	atomic.AddInt64(p, delta)
}

func runStallDetector(completed, inFlight *int64, stop <-chan struct{}, wg *sync.WaitGroup, emit ProgressFunc) {
	defer wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	lastCompleted := atomic.LoadInt64(completed)
	stalledSince := time.Now()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			cur := atomic.LoadInt64(completed)
			if cur != lastCompleted {
				lastCompleted = cur
				stalledSince = time.Now()
				continue
			}
			if atomic.LoadInt64(inFlight) > 0 && time.Since(stalledSince) >= 5*time.Second {
				emit(ProgressEvent{Phase: PhaseSlow})
				stalledSince = time.Now()
			}
		}
	}
}
