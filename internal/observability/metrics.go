package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	requestTime  map[string]time.Duration
	errorCount   map[string]int64
	jobRuns      map[string]int64
	jobSkips     map[string]int64
	jobFailures  map[string]int64
	jobLastRun   map[string]time.Time
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		requestTime:  make(map[string]time.Duration),
		errorCount:   make(map[string]int64),
		jobRuns:      make(map[string]int64),
		jobSkips:     make(map[string]int64),
		jobFailures:  make(map[string]int64),
		jobLastRun:   make(map[string]time.Time),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestTime[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// JobOutcome classifies one scheduled run.
type JobOutcome string

const (
	JobSucceeded JobOutcome = "succeeded"
	JobSkipped   JobOutcome = "skipped"
	JobFailed    JobOutcome = "failed"
)

// RecordJob counts a periodic job run by outcome.
func (m *Metrics) RecordJob(name string, outcome JobOutcome, at time.Time) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch outcome {
	case JobSucceeded:
		m.jobRuns[name]++
		m.jobLastRun[name] = at
	case JobSkipped:
		m.jobSkips[name]++
	case JobFailed:
		m.jobFailures[name]++
	}
}

// RequestStat is one row of the request table.
type RequestStat struct {
	Key       string  `json:"key"`
	Count     int64   `json:"count"`
	AvgMillis float64 `json:"avg_ms"`
}

// JobStat summarizes one periodic job.
type JobStat struct {
	Name     string     `json:"name"`
	Runs     int64      `json:"runs"`
	Skips    int64      `json:"skips"`
	Failures int64      `json:"failures"`
	LastRun  *time.Time `json:"last_run,omitempty"`
}

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	Requests []RequestStat    `json:"requests"`
	Errors   map[string]int64 `json:"errors"`
	Jobs     []JobStat        `json:"jobs"`
}

// Snapshot copies the counters under the lock, sorted by key.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Requests: []RequestStat{}, Errors: map[string]int64{}, Jobs: []JobStat{}}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, count := range m.requestCount {
		avg := float64(m.requestTime[key].Microseconds()) / float64(count) / 1000
		snap.Requests = append(snap.Requests, RequestStat{Key: key, Count: count, AvgMillis: avg})
	}
	sort.Slice(snap.Requests, func(i, j int) bool { return snap.Requests[i].Key < snap.Requests[j].Key })

	for key, count := range m.errorCount {
		snap.Errors[key] = count
	}

	names := map[string]struct{}{}
	for _, counters := range []map[string]int64{m.jobRuns, m.jobSkips, m.jobFailures} {
		for name := range counters {
			names[name] = struct{}{}
		}
	}
	for name := range names {
		stat := JobStat{Name: name, Runs: m.jobRuns[name], Skips: m.jobSkips[name], Failures: m.jobFailures[name]}
		if last, ok := m.jobLastRun[name]; ok {
			stat.LastRun = &last
		}
		snap.Jobs = append(snap.Jobs, stat)
	}
	sort.Slice(snap.Jobs, func(i, j int) bool { return snap.Jobs[i].Name < snap.Jobs[j].Name })
	return snap
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
