package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the service's domain instruments. All counters are
// registered on a dedicated registry served at /metrics.
type Metrics struct {
	registry *prometheus.Registry

	resolutions    *prometheus.CounterVec
	featureDenials *prometheus.CounterVec
	limitAllowed   prometheus.Counter
	limitDenied    *prometheus.CounterVec
	policyRefresh  prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briarkeep_subscription_resolutions_total",
			Help: "Subscription resolutions by match path.",
		}, []string{"match_path"}),
		featureDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briarkeep_feature_denials_total",
			Help: "Feature gate denials by feature name.",
		}, []string{"feature"}),
		limitAllowed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "briarkeep_rate_limit_allowed_total",
			Help: "Requests admitted by the entitlement check limiter.",
		}),
		limitDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briarkeep_rate_limit_denied_total",
			Help: "Requests rejected by the entitlement check limiter.",
		}, []string{"reason"}),
		policyRefresh: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "briarkeep_policy_refreshes_total",
			Help: "Explicit policy refreshes.",
		}),
	}

	registry.MustRegister(
		m.resolutions,
		m.featureDenials,
		m.limitAllowed,
		m.limitDenied,
		m.policyRefresh,
	)
	return m
}

// Registry returns the registry backing /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Metrics) RecordResolution(matchPath string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(strings.TrimSpace(matchPath)).Inc()
}

func (m *Metrics) RecordFeatureDenial(feature string) {
	if m == nil {
		return
	}
	m.featureDenials.WithLabelValues(strings.TrimSpace(feature)).Inc()
}

func (m *Metrics) RecordRateLimitAllowed() {
	if m == nil {
		return
	}
	m.limitAllowed.Inc()
}

func (m *Metrics) RecordRateLimitDenied(reason string) {
	if m == nil {
		return
	}
	m.limitDenied.WithLabelValues(strings.TrimSpace(reason)).Inc()
}

func (m *Metrics) RecordPolicyRefresh() {
	if m == nil {
		return
	}
	m.policyRefresh.Inc()
}
