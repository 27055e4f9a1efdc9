package metrics

import "time"

// Observer binds PipelineMetrics to one service label so the use case
// layer stays free of prometheus types.
type Observer struct {
	metrics *PipelineMetrics
	service string
}

func NewObserver(metrics *PipelineMetrics, service string) *Observer {
	return &Observer{metrics: metrics, service: service}
}

func (o *Observer) RecordSensitivity(level string) {
	o.metrics.sensitivityTotal.WithLabelValues(o.service, level).Inc()
}

func (o *Observer) RecordCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	o.metrics.cacheLookupsTotal.WithLabelValues(o.service, outcome).Inc()
}

func (o *Observer) RecordRoute(primary string) {
	o.metrics.routePrimaryTotal.WithLabelValues(o.service, primary).Inc()
}

func (o *Observer) RecordBackendAttempt(backend, outcome string) {
	o.metrics.backendAttemptsTotal.WithLabelValues(o.service, backend, outcome).Inc()
}

func (o *Observer) ObserveRetrievalSource(source string, duration time.Duration, ok bool) {
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	o.metrics.retrievalSourceTotal.WithLabelValues(o.service, source, outcome).Inc()
	o.metrics.retrievalDuration.WithLabelValues(o.service, source).Observe(duration.Seconds())
}

func (o *Observer) ObserveAnswer(source string, duration time.Duration) {
	o.metrics.answersTotal.WithLabelValues(o.service, source).Inc()
	o.metrics.answerDurationSeconds.WithLabelValues(o.service, source).Observe(duration.Seconds())
}
