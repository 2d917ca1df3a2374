package refresh

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contrib-search/internal/model"
	"github.com/sells-group/contrib-search/internal/store"
)

// watermarkKey is the run metadata key holding the contributions
// watermark the job last built from.
const watermarkKey = "watermark"

// Engine runs registered jobs against one source's store.
type Engine struct {
	source string
	st     store.Store
	reg    *Registry
	now    func() time.Time
}

// RunOpts configures which jobs to run and how.
type RunOpts struct {
	Jobs  []string // restrict to specific job names
	Force bool     // ignore ShouldRun() scheduling
}

// Summary counts the outcome of an engine run.
type Summary struct {
	Source  string   `json:"source"`
	Ran     int      `json:"ran"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// NewEngine creates an engine for the named source.
func NewEngine(source string, st store.Store, reg *Registry) *Engine {
	return &Engine{
		source: source,
		st:     st,
		reg:    reg,
		now:    time.Now,
	}
}

// Run iterates over the selected jobs, checks whether each is due, and
// runs it. A job is due when its cadence says so or when contributions
// changed since its last successful run. Every run is recorded in the refresh log. A failing job is
// recorded and logged; the remaining jobs still run.
func (e *Engine) Run(ctx context.Context, opts RunOpts) (*Summary, error) {
	log := zap.L().With(zap.String("component", "refresh.engine"), zap.String("source", e.source))
	now := e.now().UTC()

	jobs, err := e.reg.Select(opts.Jobs)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Source: e.source}
	if len(jobs) == 0 {
		log.Info("no jobs selected")
		return summary, nil
	}

	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		jobLog := log.With(zap.String("job", j.Name()), zap.String("cadence", string(j.Cadence())))

		wm, err := e.st.ContributionWatermark(ctx)
		if err != nil {
			return summary, eris.Wrapf(err, "refresh: read contribution watermark for %s", j.Name())
		}

		if !opts.Force {
			last, err := e.st.LastJobSuccess(ctx, j.Name())
			if err != nil {
				return summary, eris.Wrapf(err, "refresh: check last run for %s", j.Name())
			}
			var lastAt *time.Time
			if last != nil {
				lastAt = &last.StartedAt
			}
			if !j.ShouldRun(now, lastAt) && !dataChanged(last, wm) {
				jobLog.Debug("skipping (not due)")
				summary.Skipped++
				continue
			}
		}

		jobLog.Info("starting job")
		runID, err := e.st.StartJob(ctx, j.Name())
		if err != nil {
			return summary, eris.Wrapf(err, "refresh: start run log for %s", j.Name())
		}

		start := e.now()
		result, err := j.Run(ctx, e.st)
		elapsed := e.now().Sub(start)

		if err != nil {
			jobLog.Error("job failed", zap.Error(err), zap.Duration("elapsed", elapsed))
			if logErr := e.st.FailJob(context.WithoutCancel(ctx), runID, err.Error()); logErr != nil {
				jobLog.Error("failed to record job failure", zap.Error(logErr))
			}
			summary.Failed++
			summary.Errors = append(summary.Errors, j.Name()+": "+err.Error())
			continue
		}

		meta := result.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		meta[watermarkKey] = wm.String()

		if err := e.st.CompleteJob(ctx, runID, result.Rows, meta); err != nil {
			jobLog.Error("failed to record job completion", zap.Error(err))
		}

		jobLog.Info("job complete",
			zap.Int64("rows", result.Rows),
			zap.Duration("elapsed", elapsed),
		)
		summary.Ran++
	}

	log.Info("engine run complete",
		zap.Int("ran", summary.Ran),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// dataChanged reports whether contributions moved since the last
// successful run. A job that never ran is left to its schedule.
func dataChanged(last *model.JobRun, wm model.Watermark) bool {
	if last == nil {
		return false
	}
	prev, _ := last.Metadata[watermarkKey].(string)
	return prev != wm.String()
}
