package refresh

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/contrib-search/internal/model"
)

// Options configures the built-in jobs for one source.
type Options struct {
	Buckets    []int
	Conduits   model.Conduits
	RecentDays int
}

// Registry maps job names to their implementations.
type Registry struct {
	jobs  map[string]Job
	order []string // insertion order for deterministic iteration
}

// NewRegistry creates a registry with the percentile and recipient jobs.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		jobs: make(map[string]Job),
	}
	r.Register(&PercentileJob{Buckets: opts.Buckets})
	r.Register(&RecipientJob{Conduits: opts.Conduits, RecentDays: opts.RecentDays})
	return r
}

// Register adds a job to the registry. A job registered twice under the
// same name replaces the earlier one and keeps its position.
func (r *Registry) Register(j Job) {
	if r.jobs == nil {
		r.jobs = make(map[string]Job)
	}
	name := j.Name()
	if _, ok := r.jobs[name]; !ok {
		r.order = append(r.order, name)
	}
	r.jobs[name] = j
}

// Get returns a job by name.
func (r *Registry) Get(name string) (Job, error) {
	j, ok := r.jobs[name]
	if !ok {
		return nil, eris.Errorf("refresh: unknown job %q", name)
	}
	return j, nil
}

// Select returns the named jobs, or every job when names is empty.
func (r *Registry) Select(names []string) ([]Job, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	result := make([]Job, 0, len(names))
	for _, name := range names {
		j, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		result = append(result, j)
	}
	return result, nil
}

// All returns all jobs in registration order.
func (r *Registry) All() []Job {
	result := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.jobs[name])
	}
	return result
}

// AllNames returns all registered job names in registration order.
func (r *Registry) AllNames() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
