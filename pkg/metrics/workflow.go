package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics records invitation lifecycle outcomes.
type WorkflowMetrics struct {
	issued        *prometheus.CounterVec
	redeemed      *prometheus.CounterVec
	mailed        *prometheus.CounterVec
	redeemLatency *prometheus.HistogramVec
}

// NewWorkflowMetrics registers the invitation metrics on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	issued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invitations_issued_total",
		Help: "Invitation issuance attempts by result.",
	}, []string{"result"})
	redeemed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invitations_redeemed_total",
		Help: "Invitation redemption attempts by result.",
	}, []string{"result"})
	mailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invitation_emails_total",
		Help: "Invitation email deliveries by result.",
	}, []string{"result"})
	redeemLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invitation_redeem_duration_seconds",
		Help:    "Duration of invitation redemptions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	reg.MustRegister(issued, redeemed, mailed, redeemLatency)
	return &WorkflowMetrics{
		issued:        issued,
		redeemed:      redeemed,
		mailed:        mailed,
		redeemLatency: redeemLatency,
	}
}

// IncIssued increments the issuance counter for the given result.
func (w *WorkflowMetrics) IncIssued(result string) {
	if w == nil || w.issued == nil {
		return
	}
	w.issued.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncRedeemed increments the redemption counter for the given result.
func (w *WorkflowMetrics) IncRedeemed(result string) {
	if w == nil || w.redeemed == nil {
		return
	}
	w.redeemed.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncMailed increments the email delivery counter for the given result.
func (w *WorkflowMetrics) IncMailed(result string) {
	if w == nil || w.mailed == nil {
		return
	}
	w.mailed.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveRedeemDuration records how long a redemption took.
func (w *WorkflowMetrics) ObserveRedeemDuration(result string, duration time.Duration) {
	if w == nil || w.redeemLatency == nil {
		return
	}
	w.redeemLatency.WithLabelValues(normalizeLabel(result)).Observe(duration.Seconds())
}

func normalizeLabel(result string) string {
	if result == "" {
		return "unknown"
	}
	return result
}
