package buildpipeline

import "time"

// Stage describes one step of lowering a unit.
type Stage string

const (
	// StageDecode reads the typed program.
	StageDecode Stage = "decode"
	// StageResolve synthesizes Locals and Closure types.
	StageResolve Stage = "resolve"
	// StageLower builds the control-flow graphs.
	StageLower Stage = "lower"
	// StageValidate checks the lowered module.
	StageValidate Stage = "validate"
	// StageEncode writes the lowered module.
	StageEncode Stage = "encode"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{StageDecode, StageResolve, StageLower, StageValidate, StageEncode}

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the unit is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the unit is in the stage.
	StatusWorking Status = "working"
	// StatusCached indicates the unit was served from the disk cache.
	StatusCached Status = "cached"
	// StatusDone indicates the unit finished every stage.
	StatusDone Status = "done"
	// StatusError indicates the unit failed in the stage.
	StatusError Status = "error"
)

// Event reports progress for a unit file.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Units lowered concurrently call
// OnEvent from several goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings holds stage durations of one unit.
type Timings struct {
	stages map[Stage]time.Duration
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] = dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
