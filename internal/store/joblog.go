package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/contrib-search/internal/model"
)

// StartJob records the beginning of a refresh job run and returns its ID.
func (s *SQLStore) StartJob(ctx context.Context, job string) (string, error) {
	id := uuid.NewString()
	_, err := s.b.exec(ctx,
		`INSERT INTO refresh_log (id, job, status, started_at, rows_synced) VALUES (?, ?, ?, ?, 0)`,
		id, job, string(model.JobRunning), formatTime(s.now()),
	)
	if err != nil {
		return "", eris.Wrapf(err, "store: start job %s", job)
	}
	return id, nil
}

// CompleteJob marks a run as successfully completed.
func (s *SQLStore) CompleteJob(ctx context.Context, runID string, rows int64, metadata map[string]any) error {
	var meta any
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return eris.Wrap(err, "store: marshal job metadata")
		}
		meta = string(b)
	}
	_, err := s.b.exec(ctx,
		`UPDATE refresh_log SET status = ?, completed_at = ?, rows_synced = ?, metadata = ? WHERE id = ?`,
		string(model.JobComplete), formatTime(s.now()), rows, meta, runID,
	)
	return eris.Wrapf(err, "store: complete job %s", runID)
}

// FailJob marks a run as failed with an error message.
func (s *SQLStore) FailJob(ctx context.Context, runID string, errMsg string) error {
	_, err := s.b.exec(ctx,
		`UPDATE refresh_log SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(model.JobFailed), formatTime(s.now()), errMsg, runID,
	)
	return eris.Wrapf(err, "store: fail job %s", runID)
}

// jobRunColumns are the refresh_log columns read by scanJobRun.
const jobRunColumns = `id, job, status, started_at, completed_at, rows_synced, error, metadata`

// LastJobSuccess returns the latest successful run of job, or nil if it
// never succeeded.
func (s *SQLStore) LastJobSuccess(ctx context.Context, job string) (*model.JobRun, error) {
	run, err := scanJobRun(s.b.queryRow(ctx,
		`SELECT `+jobRunColumns+` FROM refresh_log WHERE job = ? AND status = ?
		 ORDER BY started_at DESC LIMIT 1`,
		job, string(model.JobComplete),
	).Scan)
	if err != nil {
		if s.b.isNoRows(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: last success for %s", job)
	}
	return run, nil
}

// ListJobs returns the most recent job runs, newest first.
func (s *SQLStore) ListJobs(ctx context.Context, limit int) ([]model.JobRun, error) {
	r, err := s.b.query(ctx,
		`SELECT `+jobRunColumns+` FROM refresh_log ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: list jobs")
	}
	defer r.Close()

	var runs []model.JobRun
	for r.Next() {
		run, err := scanJobRun(r.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan job run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(r.Err(), "store: iterate job runs")
}

// scanJobRun reads one row selected with jobRunColumns. Scan errors are
// returned unwrapped so callers can detect a missing row.
func scanJobRun(scan func(dest ...any) error) (*model.JobRun, error) {
	var (
		run               model.JobRun
		status, started   string
		completed, errStr *string
		meta              *string
	)
	if err := scan(&run.ID, &run.Job, &status, &started, &completed, &run.Rows, &errStr, &meta); err != nil {
		return nil, err
	}
	run.Status = model.JobStatus(status)
	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if completed != nil {
		t, err := parseTime(*completed)
		if err != nil {
			return nil, err
		}
		run.CompletedAt = &t
	}
	if errStr != nil {
		run.Error = *errStr
	}
	if meta != nil {
		_ = json.Unmarshal([]byte(*meta), &run.Metadata)
	}
	return &run, nil
}

// ContributionWatermark summarizes the contributions table so that callers
// can tell whether it changed since an earlier reading.
func (s *SQLStore) ContributionWatermark(ctx context.Context) (model.Watermark, error) {
	var w model.Watermark
	err := s.b.queryRow(ctx, `SELECT COALESCE(MAX(id), 0), COUNT(*) FROM contributions`).Scan(&w.MaxID, &w.Count)
	if err != nil {
		return w, eris.Wrap(err, "store: contribution watermark")
	}
	return w, nil
}
