package obs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ProposalsCreatedTotal counts created proposals by initial status.
	ProposalsCreatedTotal *prometheus.CounterVec
	// ProposalStatusChangesTotal counts status updates by target status.
	ProposalStatusChangesTotal *prometheus.CounterVec
	// SnapshotsBuiltTotal counts snapshot builds by source (owner, public, cache).
	SnapshotsBuiltTotal *prometheus.CounterVec
	// PDFRenderedTotal counts PDF render outcomes.
	PDFRenderedTotal *prometheus.CounterVec
	// PDFRenderLatency records PDF render time in milliseconds.
	PDFRenderLatency prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ProposalsCreatedTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposals_created_total",
			Help:      "Count of created proposals by initial status.",
		}, []string{"status"}))
		ProposalStatusChangesTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposal_status_changes_total",
			Help:      "Count of proposal status updates by target status.",
		}, []string{"status"}))
		SnapshotsBuiltTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposal_snapshots_built_total",
			Help:      "Count of proposal snapshots served by source.",
		}, []string{"source"}))
		PDFRenderedTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposal_pdf_rendered_total",
			Help:      "Count of proposal PDF renders by outcome.",
		}, []string{"result"}))
		PDFRenderLatency = registerOrReuse(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "proposal_pdf_render_duration_ms",
			Help:      "Latency of proposal PDF rendering in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000},
		}))
	})
}

// ObserveProposalCreated is a no-op until domain metrics are registered.
func ObserveProposalCreated(status string) {
	if ProposalsCreatedTotal != nil {
		ProposalsCreatedTotal.WithLabelValues(status).Inc()
	}
}

// ObserveStatusChange records a status update.
func ObserveStatusChange(status string) {
	if ProposalStatusChangesTotal != nil {
		ProposalStatusChangesTotal.WithLabelValues(status).Inc()
	}
}

// ObserveSnapshot records a served snapshot.
func ObserveSnapshot(source string) {
	if SnapshotsBuiltTotal != nil {
		SnapshotsBuiltTotal.WithLabelValues(source).Inc()
	}
}

// ObservePDFRender records a render outcome and its duration.
func ObservePDFRender(result string, took time.Duration) {
	if PDFRenderedTotal != nil {
		PDFRenderedTotal.WithLabelValues(result).Inc()
	}
	if PDFRenderLatency != nil {
		PDFRenderLatency.Observe(DurationMillis(took))
	}
}
