package refresh

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contrib-search/internal/model"
	"github.com/sells-group/contrib-search/internal/store"
)

// mockJob implements Job for testing.
type mockJob struct {
	name      string
	cadence   Cadence
	shouldRun bool
	runErr    error
	rows      int64
	ran       bool
}

func (m *mockJob) Name() string     { return m.name }
func (m *mockJob) Table() string    { return m.name }
func (m *mockJob) Cadence() Cadence { return m.cadence }
func (m *mockJob) ShouldRun(now time.Time, lastSuccess *time.Time) bool {
	return m.shouldRun
}
func (m *mockJob) Run(ctx context.Context, st store.Store) (*Result, error) {
	m.ran = true
	if m.runErr != nil {
		return nil, m.runErr
	}
	return &Result{Rows: m.rows, Metadata: map[string]any{"job": m.name}}, nil
}

func newTestStore(t *testing.T) *store.SQLStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func jobsByName(t *testing.T, st store.Store) map[string]model.JobRun {
	t.Helper()
	runs, err := st.ListJobs(context.Background(), 100)
	require.NoError(t, err)
	out := make(map[string]model.JobRun, len(runs))
	for _, r := range runs {
		out[r.Job] = r
	}
	return out
}

func TestRegistry_Select(t *testing.T) {
	r := &Registry{}
	r.Register(&mockJob{name: "a"})
	r.Register(&mockJob{name: "b"})
	r.Register(&mockJob{name: "c"})

	all, err := r.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, r.AllNames())

	some, err := r.Select([]string{"c", "a"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "c", some[0].Name())
	assert.Equal(t, "a", some[1].Name())

	_, err = r.Select([]string{"missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown job "missing"`)
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := &Registry{}
	r.Register(&mockJob{name: "a", rows: 1})
	r.Register(&mockJob{name: "a", rows: 2})

	assert.Equal(t, []string{"a"}, r.AllNames())
	j, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), j.(*mockJob).rows)
}

func TestNewRegistry_BuiltinJobs(t *testing.T) {
	r := NewRegistry(Options{})
	assert.Equal(t, []string{"percentiles", "recipients"}, r.AllNames())

	p, err := r.Get("percentiles")
	require.NoError(t, err)
	assert.Equal(t, Weekly, p.Cadence())
	assert.Equal(t, "donor_totals_by_year", p.Table())

	rj, err := r.Get("recipients")
	require.NoError(t, err)
	assert.Equal(t, Daily, rj.Cadence())
	assert.Equal(t, "recipient_lookup", rj.Table())
}

func TestEngine_RunRecordsOutcomes(t *testing.T) {
	st := newTestStore(t)

	ok := &mockJob{name: "ok", cadence: Daily, shouldRun: true, rows: 7}
	bad := &mockJob{name: "bad", cadence: Daily, shouldRun: true, runErr: errors.New("boom")}
	idle := &mockJob{name: "idle", cadence: Weekly, shouldRun: false}
	after := &mockJob{name: "after", cadence: Daily, shouldRun: true, rows: 1}

	reg := &Registry{}
	reg.Register(ok)
	reg.Register(bad)
	reg.Register(idle)
	reg.Register(after)

	summary, err := NewEngine("fec", st, reg).Run(context.Background(), RunOpts{})
	require.NoError(t, err)

	assert.Equal(t, "fec", summary.Source)
	assert.Equal(t, 2, summary.Ran)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{"bad: boom"}, summary.Errors)

	assert.True(t, ok.ran)
	assert.True(t, bad.ran)
	assert.False(t, idle.ran)
	assert.True(t, after.ran, "a failed job must not stop the rest")

	runs := jobsByName(t, st)
	require.Len(t, runs, 3)
	assert.Equal(t, model.JobComplete, runs["ok"].Status)
	assert.Equal(t, int64(7), runs["ok"].Rows)
	assert.Equal(t, "ok", runs["ok"].Metadata["job"])
	assert.Equal(t, model.JobFailed, runs["bad"].Status)
	assert.Equal(t, "boom", runs["bad"].Error)
	assert.Equal(t, model.JobComplete, runs["after"].Status)
}

func TestEngine_ForceIgnoresSchedule(t *testing.T) {
	st := newTestStore(t)
	idle := &mockJob{name: "idle", cadence: Weekly, shouldRun: false}
	reg := &Registry{}
	reg.Register(idle)

	summary, err := NewEngine("fec", st, reg).Run(context.Background(), RunOpts{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Ran)
	assert.True(t, idle.ran)
}

func TestEngine_SelectedJobsOnly(t *testing.T) {
	st := newTestStore(t)
	a := &mockJob{name: "a", shouldRun: true}
	b := &mockJob{name: "b", shouldRun: true}
	reg := &Registry{}
	reg.Register(a)
	reg.Register(b)

	summary, err := NewEngine("fec", st, reg).Run(context.Background(), RunOpts{Jobs: []string{"b"}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Ran)
	assert.False(t, a.ran)
	assert.True(t, b.ran)

	_, err = NewEngine("fec", st, reg).Run(context.Background(), RunOpts{Jobs: []string{"nope"}})
	assert.Error(t, err)
}

func TestEngine_CancelledContext(t *testing.T) {
	st := newTestStore(t)
	a := &mockJob{name: "a", shouldRun: true}
	reg := &Registry{}
	reg.Register(a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine("fec", st, reg).Run(ctx, RunOpts{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, a.ran)
}

func TestEngine_BuiltinJobs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	_, err := st.AddCommittees(ctx, []model.Committee{
		{ID: "C001", Name: "FRIENDS OF JANE DOE", Type: "H"},
		{ID: "C00401224", Name: "ACTBLUE", Type: "V"},
	})
	require.NoError(t, err)
	_, err = st.AddContributions(ctx, []model.Contribution{
		{FirstName: "JOHN", LastName: "SMITH", ZipCode: "80202", Date: "2024-03-01", RecipientID: "C001", Amount: 100},
		{FirstName: "MARY", LastName: "JONES", ZipCode: "73301", Date: "2024-05-01", RecipientID: "C001", Amount: 1000},
		{FirstName: "MARY", LastName: "JONES", ZipCode: "73301", Date: "2024-05-02", RecipientID: "C00401224", Amount: 50},
	})
	require.NoError(t, err)

	reg := NewRegistry(Options{Conduits: model.Conduits{IDs: []string{"C00401224"}}})
	summary, err := NewEngine("fec", st, reg).Run(ctx, RunOpts{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Ran)
	assert.Zero(t, summary.Failed)

	runs := jobsByName(t, st)
	assert.Equal(t, int64(2), runs["percentiles"].Rows)
	assert.Equal(t, int64(1), runs["recipients"].Rows)

	th, err := st.Thresholds(ctx, 2024)
	require.NoError(t, err)
	assert.NotEmpty(t, th)

	// Both jobs just succeeded, so a second scheduled run skips them.
	summary, err = NewEngine("fec", st, reg).Run(ctx, RunOpts{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Ran)
	assert.Equal(t, 2, summary.Skipped)
}

func TestEngine_RunsAfterImport(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	_, err := st.AddCommittees(ctx, []model.Committee{{ID: "C001", Name: "FRIENDS OF JANE DOE", Type: "H"}})
	require.NoError(t, err)
	_, err = st.AddContributions(ctx, []model.Contribution{
		{FirstName: "JOHN", LastName: "SMITH", ZipCode: "80202", Date: "2024-03-01", RecipientID: "C001", Amount: 100},
	})
	require.NoError(t, err)

	reg := NewRegistry(Options{})
	summary, err := NewEngine("fec", st, reg).Run(ctx, RunOpts{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Ran)

	_, err = st.AddContributions(ctx, []model.Contribution{
		{FirstName: "NEW", LastName: "DONOR", ZipCode: "10001", Date: "2024-06-01", RecipientID: "C001", Amount: 500},
	})
	require.NoError(t, err)

	// Both jobs are inside their cadence, but the import makes them due.
	summary, err = NewEngine("fec", st, reg).Run(ctx, RunOpts{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Ran)
	assert.Zero(t, summary.Skipped)

	d, err := st.DonorYear(ctx, "NEW|DONOR|10001", 2024)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.InDelta(t, 500.0, d.TotalAmount, 0.001)

	summary, err = NewEngine("fec", st, reg).Run(ctx, RunOpts{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Ran)
	assert.Equal(t, 2, summary.Skipped)
}

func TestEngine_WatermarkRecorded(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	idle := &mockJob{name: "idle", cadence: Weekly, shouldRun: false}
	reg := &Registry{}
	reg.Register(idle)

	// First run is forced; an unchanged table keeps the job idle afterwards.
	_, err := NewEngine("fec", st, reg).Run(ctx, RunOpts{Force: true})
	require.NoError(t, err)

	wm, err := st.ContributionWatermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, wm.String(), jobsByName(t, st)["idle"].Metadata["watermark"])

	idle.ran = false
	summary, err := NewEngine("fec", st, reg).Run(ctx, RunOpts{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.False(t, idle.ran)

	_, err = st.AddContributions(ctx, []model.Contribution{
		{FirstName: "JOHN", LastName: "SMITH", ZipCode: "80202", Date: "2024-03-01", RecipientID: "C001", Amount: 100},
	})
	require.NoError(t, err)

	summary, err = NewEngine("fec", st, reg).Run(ctx, RunOpts{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Ran)
	assert.True(t, idle.ran)
}
