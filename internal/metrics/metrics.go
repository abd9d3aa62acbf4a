// Package metrics records capsule build counters with Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label values.
const (
	StateCreated = "created"
	StateReused  = "reused"

	ResultRun     = "run"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Recorder records build metrics. A nil *Recorder is a valid no-op.
type Recorder struct {
	capsules      *prometheus.CounterVec
	installs      *prometheus.CounterVec
	buildDuration prometheus.Histogram
}

// NewRecorder creates a Recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		capsules: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capsule_capsules_total",
				Help: "Number of capsules acquired, by whether the directory was created or reused.",
			},
			[]string{"state"},
		),
		installs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capsule_installs_total",
				Help: "Number of capsule installs by result.",
			},
			[]string{"result"},
		),
		buildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "capsule_build_duration_seconds",
				Help:    "Time taken to build a sub-network.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	for _, c := range []prometheus.Collector{r.capsules, r.installs, r.buildDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// CapsuleAcquired counts one capsule.
func (r *Recorder) CapsuleAcquired(reused bool) {
	if r == nil {
		return
	}
	state := StateCreated
	if reused {
		state = StateReused
	}
	r.capsules.WithLabelValues(state).Inc()
}

// Installs counts install outcomes for one build.
func (r *Recorder) Installs(result string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.installs.WithLabelValues(result).Add(float64(n))
}

// ObserveBuild records the duration of a build that started at start.
func (r *Recorder) ObserveBuild(start time.Time) {
	if r == nil {
		return
	}
	r.buildDuration.Observe(time.Since(start).Seconds())
}
