// Package bundle wraps the external codec binary that owns the
// bundle subsystem's proprietary block compression. Every operation
// in this package shells out (see spec.md §6's external utility
// contract) rather than re-implementing the codec in process; the
// package's job is argument shaping, stdin/stdout/stderr plumbing,
// and turning the tool's text protocol into typed results.
//
// Grounded on the teacher's drivers/psarc package for the overall
// "parse an archive, resolve paths to extractable entries" shape,
// adapted here to a delegated-process model since the block codec
// itself is out of reach of a pure-Go implementation.
package bundle

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// stdinPathThreshold is the path-count above which paths are piped to
// the tool's stdin instead of passed on the command line, avoiding
// platform argument-length limits.
const stdinPathThreshold = 50

// progressThrottle bounds how often a ProgressFunc is invoked while
// streaming the tool's stderr.
const progressThrottle = 100 * time.Millisecond // ~10/sec

// ProgressFunc is invoked once per completed file during extraction,
// throttled to at most ten calls per second.
type ProgressFunc func(path string)

// Tool is a handle on the external bundle codec binary.
type Tool struct {
	BinaryPath string
}

// NewTool returns a Tool invoking binaryPath for every operation.
func NewTool(binaryPath string) *Tool {
	return &Tool{BinaryPath: binaryPath}
}

var (
	reBundleCount  = regexp.MustCompile(`Bundle count in index binary:\s*(\d+)`)
	reFileCount    = regexp.MustCompile(`File count in index binary:\s*(\d+)`)
	reExtracting   = regexp.MustCompile(`Extracting:\s*(.+)`)
	reDoneSentinel = regexp.MustCompile(`Done,\s*(\d+)/(\d+)\s*extracted,\s*(\d+)\s*missed\.`)
)

// ListResult is the outcome of ListFiles.
type ListResult struct {
	BundleCount int
	FileCount   int
	Paths       []string
}

// ListFiles enumerates every logical path stored in archivePath's
// bundle index.
func (t *Tool) ListFiles(ctx context.Context, archivePath string) (ListResult, error) {
	cmd := exec.CommandContext(ctx, t.BinaryPath, "list-files", archivePath)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return ListResult{}, errors.Wrap(err, "bundle: attaching stdout pipe")
	}
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		return ListResult{}, errors.Wrap(err, "bundle: starting list-files")
	}

	var paths []string
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			paths = append(paths, line)
		}
	}

	runErr := cmd.Wait()

	result := ListResult{Paths: paths}
	stderrText := stderrBuf.String()
	if m := reBundleCount.FindStringSubmatch(stderrText); m != nil {
		result.BundleCount, _ = strconv.Atoi(m[1])
	}
	if m := reFileCount.FindStringSubmatch(stderrText); m != nil {
		result.FileCount, _ = strconv.Atoi(m[1])
	}

	if runErr != nil {
		return result, errors.Wrapf(ErrToolFailed, "list-files: %v: %s", runErr, stderrText)
	}
	return result, nil
}

// Result is the outcome of an extraction operation.
type Result struct {
	Extracted int
	Missed    int
	Total     int
}

// ExtractByPaths extracts exactly paths from archivePath into
// outputDir. When len(paths) exceeds stdinPathThreshold the list is
// piped to the tool's stdin instead of appended to its argv.
func (t *Tool) ExtractByPaths(ctx context.Context, archivePath, outputDir string, paths []string, useRegex bool, progress ProgressFunc) (Result, error) {
	args := []string{"extract-files"}
	if useRegex {
		args = append(args, "--regex")
	}
	args = append(args, archivePath, outputDir)

	var stdin io.Reader
	if len(paths) > stdinPathThreshold {
		stdin = strings.NewReader(strings.Join(paths, "\n") + "\n")
	} else {
		args = append(args, paths...)
	}

	return t.run(ctx, args, stdin, progress)
}

// ExtractByPattern extracts every path matching regex. When
// excludeLanguages is set, the tool first enumerates all paths,
// filters them by regex and the fixed language-exclusion pattern set
// in process, then delegates the filtered, exact path list to
// ExtractByPaths rather than passing the regex straight through.
func (t *Tool) ExtractByPattern(ctx context.Context, archivePath, outputDir, pattern string, excludeLanguages bool, progress ProgressFunc) (Result, error) {
	if !excludeLanguages {
		return t.run(ctx, []string{"extract-files", "--regex", archivePath, outputDir, pattern}, nil, progress)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return Result{}, errors.Wrapf(err, "bundle: compiling pattern %q", pattern)
	}

	listing, err := t.ListFiles(ctx, archivePath)
	if err != nil {
		return Result{}, err
	}

	var filtered []string
	for _, p := range listing.Paths {
		if re.MatchString(p) && !isLanguageExcluded(p) {
			filtered = append(filtered, p)
		}
	}

	return t.ExtractByPaths(ctx, archivePath, outputDir, filtered, false, progress)
}

func (t *Tool) run(ctx context.Context, args []string, stdin io.Reader, progress ProgressFunc) (Result, error) {
	cmd := exec.CommandContext(ctx, t.BinaryPath, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, errors.Wrap(err, "bundle: attaching stderr pipe")
	}
	var combined bytes.Buffer

	if err := cmd.Start(); err != nil {
		return Result{}, errors.Wrap(err, "bundle: starting extract-files")
	}

	var result Result
	var lastEmit time.Time
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		combined.WriteString(line)
		combined.WriteByte('\n')

		if m := reExtracting.FindStringSubmatch(line); m != nil {
			if progress != nil {
				now := time.Now()
				if now.Sub(lastEmit) >= progressThrottle {
					progress(strings.TrimSpace(m[1]))
					lastEmit = now
				}
			}
		}
		if m := reDoneSentinel.FindStringSubmatch(line); m != nil {
			result.Extracted, _ = strconv.Atoi(m[1])
			result.Total, _ = strconv.Atoi(m[2])
			result.Missed, _ = strconv.Atoi(m[3])
		}
	}

	runErr := cmd.Wait()
	output := combined.String()

	if !reDoneSentinel.MatchString(output) {
		if runErr == nil {
			runErr = errors.New("missing Done sentinel in tool output")
		}
		return result, errors.Wrapf(ErrToolFailed, "%v: %s", runErr, output)
	}
	return result, nil
}
