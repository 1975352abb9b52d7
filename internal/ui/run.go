package ui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"reef/internal/buildpipeline"
)

// Run shows the progress view on out while work runs on its own goroutine.
// work receives the sink to report to; Run returns once both are finished.
// A UI failure is returned only when work itself succeeded.
func Run[T any](out io.Writer, title string, files []string, work func(buildpipeline.ProgressSink) (T, error)) (T, error) {
	type outcome struct {
		res T
		err error
	}
	events := make(chan buildpipeline.Event, 256)
	done := make(chan outcome, 1)

	go func() {
		res, err := work(buildpipeline.ChannelSink{Ch: events})
		close(events)
		done <- outcome{res: res, err: err}
	}()

	program := tea.NewProgram(NewProgressModel(title, files, events), tea.WithOutput(out))
	_, uiErr := program.Run()
	// The view may have quit early; keep draining so work never blocks.
	go func() {
		for range events {
		}
	}()
	o := <-done
	if o.err == nil && uiErr != nil {
		return o.res, uiErr
	}
	return o.res, o.err
}
