package allure

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Locations of per-test outcome files inside a report folder, in order of
// preference: the generated report's test cases, then raw results.
var (
	TestCasesDir  = filepath.Join("data", "test-cases")
	RawResultsDir = "allure-results"
)

const rawResultSuffix = "-result.json"

const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusBroken  = "broken"
	StatusSkipped = "skipped"
	StatusUnknown = "unknown"
)

// Counts are the outcome totals of one report.
type Counts struct {
	Passed int
	Failed int
	Total  int
}

// TestResult is the subset of an Allure test case or raw result we need.
// Generated test cases nest timings under "time"; raw results keep them at
// the top level.
type TestResult struct {
	HistoryID string `json:"historyId"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Stop      int64  `json:"stop"`
	Time      struct {
		Stop int64 `json:"stop"`
	} `json:"time"`
}

func (r TestResult) stopTime() int64 {
	if r.Time.Stop != 0 {
		return r.Time.Stop
	}
	return r.Stop
}

// Reader recomputes counts from the result files of report folders.
type Reader struct {
	fs  afero.Fs
	log *logrus.Entry
}

func NewReader(fs afero.Fs, log *logrus.Entry) *Reader {
	return &Reader{fs: fs, log: log.WithField("component", "allure")}
}

// Count tallies the outcomes found in dir. It returns false when the folder
// holds no result files at all.
func (r *Reader) Count(dir string) (Counts, bool, error) {
	results, err := r.Results(dir)
	if err != nil {
		return Counts{}, false, err
	}
	if len(results) == 0 {
		return Counts{}, false, nil
	}
	return Tally(results), true, nil
}

// Results loads the test results of dir, preferring generated test cases
// over raw results. Files that fail to parse are logged and skipped.
func (r *Reader) Results(dir string) ([]TestResult, error) {
	files, err := r.resultFiles(filepath.Join(dir, TestCasesDir), ".json")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		files, err = r.resultFiles(filepath.Join(dir, RawResultsDir), rawResultSuffix)
		if err != nil {
			return nil, err
		}
	}

	var results []TestResult
	for _, path := range files {
		data, err := afero.ReadFile(r.fs, path)
		if err != nil {
			r.log.WithError(err).Warnf("Failed to read %s", path)
			continue
		}
		var res TestResult
		if err := json.Unmarshal(data, &res); err != nil {
			r.log.WithError(err).Warnf("Failed to parse %s", path)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Reader) resultFiles(dir, suffix string) ([]string, error) {
	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// Tally counts outcomes, treating broken tests as failed. Retries of the same
// test (same historyId) count once, using the attempt that finished last.
func Tally(results []TestResult) Counts {
	latest := make(map[string]TestResult)
	var counted []TestResult
	for _, res := range results {
		if res.HistoryID == "" {
			counted = append(counted, res)
			continue
		}
		if prev, ok := latest[res.HistoryID]; !ok || res.stopTime() >= prev.stopTime() {
			latest[res.HistoryID] = res
		}
	}
	for _, res := range latest {
		counted = append(counted, res)
	}

	var c Counts
	for _, res := range counted {
		c.Total++
		switch strings.ToLower(res.Status) {
		case StatusPassed:
			c.Passed++
		case StatusFailed, StatusBroken:
			c.Failed++
		}
	}
	return c
}
