package telemetry

import (
	"strings"
	"sync"
)

type Level int

const (
	LevelDebug Level = iota
	LevelCount
	LevelWarning
	LevelBroken
)

type Record struct {
	Level  Level
	ID     string
	Params []any
	Count  int64
}

// Recorder keeps every report in memory, it is meant to be used in tests to assert on what a
// component reported.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

func (r *Recorder) add(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add(Record{Level: LevelBroken, ID: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add(Record{Level: LevelWarning, ID: id, Params: params})
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add(Record{Level: LevelDebug, ID: msg, Params: params})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add(Record{Level: LevelCount, ID: id, Count: count})
}

func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Find returns the records of a level whose id ends with `suffix`, scoped ids make exact
// matches awkward.
func (r *Recorder) Find(level Level, suffix string) []Record {
	var out []Record
	for _, rec := range r.Records() {
		if rec.Level == level && strings.HasSuffix(rec.ID, suffix) {
			out = append(out, rec)
		}
	}
	return out
}
