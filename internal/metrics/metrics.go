package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Metrics exposes the prometheus counters for the award and job pipelines.
type Metrics struct {
	XPAwards           *prometheus.CounterVec
	XPDuplicates       *prometheus.CounterVec
	RateLimitDenials   *prometheus.CounterVec
	BadgesAwarded      *prometheus.CounterVec
	JobTransitions     *prometheus.CounterVec
	JobQuotaDenials    prometheus.Counter
	JobEnqueueFailures prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		XPAwards: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codequest",
			Name:      "xp_awards_total",
			Help:      "XP events accepted, labelled by source.",
		}, []string{"source"}),
		XPDuplicates: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codequest",
			Name:      "xp_duplicates_total",
			Help:      "Award requests resolved to an existing event.",
		}, []string{"source"}),
		RateLimitDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codequest",
			Name:      "rate_limit_denials_total",
			Help:      "Requests rejected by the fixed-window limiter.",
		}, []string{"limiter"}),
		BadgesAwarded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codequest",
			Name:      "badges_awarded_total",
			Help:      "Badges granted by the evaluator.",
		}, []string{"code"}),
		JobTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codequest",
			Name:      "job_transitions_total",
			Help:      "Job state transitions.",
		}, []string{"status"}),
		JobQuotaDenials: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "codequest",
			Name:      "job_quota_denials_total",
			Help:      "Job submissions rejected by the quota guard.",
		}),
		JobEnqueueFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "codequest",
			Name:      "job_enqueue_failures_total",
			Help:      "Accepted jobs that could not be handed to the queue.",
		}),
	}
}

var Module = fx.Module("metrics",
	fx.Provide(New),
)
