package driver

import (
	"reef/internal/buildpipeline"
	"reef/internal/observ"
)

// recordTimings adds the stage durations of one unit to timer.
func recordTimings(timer *observ.Timer, t buildpipeline.Timings) {
	if timer == nil {
		return
	}
	for _, stage := range buildpipeline.Stages {
		if t.Has(stage) {
			timer.Add(string(stage), t.Duration(stage), "")
		}
	}
}
