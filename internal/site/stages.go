package site

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/contractcatalog/internal/logfields"
)

// StageName identifies one step of a generation run.
type StageName string

// Canonical stage names, in execution order.
const (
	StageProbeTools    StageName = "probe_tools"
	StageDiscover      StageName = "discover"
	StagePrepareOutput StageName = "prepare_output"
	StageIndex         StageName = "index"
	StagePages         StageName = "pages"
	StageArchitecture  StageName = "architecture"
	StageAssets        StageName = "assets"
	StageAsyncAPIDocs  StageName = "asyncapi_docs"
)

// Stage is one step operating on the shared run state.
type Stage func(ctx context.Context, st *runState) error

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// runStages executes stages in order, recording timing and stopping on the first error.
func runStages(ctx context.Context, st *runState, stages []StageDef) error {
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		t0 := time.Now()
		err := s.Fn(ctx, st)
		dur := time.Since(t0)
		st.report.StageDurations[s.Name] = dur
		st.g.recorder.ObserveStageDuration(string(s.Name), dur)
		slog.Debug("Stage complete",
			logfields.RunID(st.report.RunID),
			logfields.Stage(string(s.Name)),
			logfields.DurationMS(float64(dur.Microseconds())/1000))
		if err != nil {
			return err
		}
	}
	return nil
}
