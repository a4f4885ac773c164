package dispatch

import (
	"time"

	"blastbot/internal/classify"
	"blastbot/internal/transport"
)

type Config struct {
	RatePerSec     int
	ProgressEvery  int
	FailureSamples int
}

// Report aggregates one run. It is owned by the loop while running and
// read-only once returned.
type Report struct {
	Total     int
	Success   int
	Blocked   int
	Invalid   int
	Transient int

	// Bounded samples of failing recipients per kind (first N, capped).
	BlockedSample   []transport.Recipient
	InvalidSample   []transport.Recipient
	TransientSample []transport.Recipient

	StartedAt time.Time
	DoneAt    time.Time
}

// Processed is the number of recipients with a recorded outcome. It always
// equals the counter sum.
func (r *Report) Processed() int {
	return r.Success + r.Blocked + r.Invalid + r.Transient
}

func (r *Report) SuccessRatio() float64 {
	p := r.Processed()
	if p == 0 {
		return 0
	}
	return float64(r.Success) / float64(p)
}

func (r *Report) record(kind classify.Kind, rcpt transport.Recipient, sampleCap int) {
	switch kind {
	case classify.Blocked:
		r.Blocked++
		if len(r.BlockedSample) < sampleCap {
			r.BlockedSample = append(r.BlockedSample, rcpt)
		}
	case classify.Invalid:
		r.Invalid++
		if len(r.InvalidSample) < sampleCap {
			r.InvalidSample = append(r.InvalidSample, rcpt)
		}
	default:
		r.Transient++
		if len(r.TransientSample) < sampleCap {
			r.TransientSample = append(r.TransientSample, rcpt)
		}
	}
}

// HandleStatus is the per-handle outcome of a test run.
type HandleStatus int

const (
	HandleSuccess HandleStatus = iota
	HandleNotFound
	HandleFailed
)

func (s HandleStatus) String() string {
	switch s {
	case HandleSuccess:
		return "success"
	case HandleNotFound:
		return "not-found"
	default:
		return "failed"
	}
}

type HandleResult struct {
	Handle    string
	Recipient transport.Recipient
	Status    HandleStatus
	Detail    string
}
