// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package metrics defines the Prometheus instruments for the ad pipeline
// and the event sink that drives them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AccelByte/extend-ads-policy/pkg/ads"
)

// Metrics holds every instrument exposed by the ads service. Register it on
// the application registry next to the Go and process collectors.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	ImpressionsTotal   *prometheus.CounterVec
	SkipsTotal         *prometheus.CounterVec
	ErrorsTotal        *prometheus.CounterVec
	PolicyDenialsTotal *prometheus.CounterVec
	LoadDuration       *prometheus.HistogramVec
}

// New creates the instrument set.
func New() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ads_requests_total",
				Help: "Total number of ad load requests issued to the provider",
			},
			[]string{"format"},
		),
		ImpressionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ads_impressions_total",
				Help: "Total number of ads that started displaying",
			},
			[]string{"format"},
		),
		SkipsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ads_skips_total",
				Help: "Total number of ad opportunities that did not show an ad",
			},
			[]string{"format", "reason"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ads_errors_total",
				Help: "Total number of provider failures, by failing operation",
			},
			[]string{"format", "kind"},
		),
		PolicyDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ads_policy_denials_total",
				Help: "Total number of ad opportunities denied by the policy",
			},
			[]string{"format", "reason"},
		),
		LoadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ads_load_duration_seconds",
				Help:    "Time from ad request to fill",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		),
	}
}

// Register registers every instrument with the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.RequestsTotal,
		m.ImpressionsTotal,
		m.SkipsTotal,
		m.ErrorsTotal,
		m.PolicyDenialsTotal,
		m.LoadDuration,
	)
}

// Sink increments the instruments from ad events. Chain it with the log
// sink so one emission drives both.
type Sink struct {
	metrics *Metrics
}

// NewSink creates a metrics sink over an instrument set.
func NewSink(m *Metrics) *Sink {
	return &Sink{metrics: m}
}

// Record implements ads.Sink.
func (s *Sink) Record(ev ads.Event) {
	format := string(ev.Format)

	switch ev.Kind {
	case ads.KindRequest:
		s.metrics.RequestsTotal.WithLabelValues(format).Inc()
	case ads.KindImpression:
		s.metrics.ImpressionsTotal.WithLabelValues(format).Inc()
	case ads.KindFill:
		s.metrics.LoadDuration.WithLabelValues(format).Observe(ev.Duration.Seconds())
	case ads.KindNoFill:
		s.metrics.ErrorsTotal.WithLabelValues(format, "no_fill").Inc()
	case ads.KindError:
		s.metrics.ErrorsTotal.WithLabelValues(format, ev.Op).Inc()
	case ads.KindSkipped:
		s.metrics.SkipsTotal.WithLabelValues(format, string(ev.Reason)).Inc()

		// A cap or switch denial is a policy decision, not a delivery gap
		if ev.Reason == ads.SkipReasonDisabled || ev.Reason == ads.SkipReasonFrequencyCap {
			s.metrics.PolicyDenialsTotal.WithLabelValues(format, string(ev.Reason)).Inc()
		}
	}
}
