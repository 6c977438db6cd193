package render

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/build-flow-labs/secscore/internal/secscore/report"
)

// Metrics writes the run's results in the Prometheus text format to path,
// for node_exporter's textfile collector.
func Metrics(path string, d *report.Data) error {
	reg := prometheus.NewRegistry()
	m, s := d.Metadata(), d.Summary()
	labels := prometheus.Labels{"tenant_id": m.TenantID}

	scoreGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "secscore_secure_score_points",
		Help: "Tenant Secure Score in points, by kind (current or max).",
	}, []string{"tenant_id", "kind"})
	controls := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "secscore_controls",
		Help: "Reported controls by compliance status.",
	}, []string{"tenant_id", "status"})
	risks := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "secscore_controls_by_risk",
		Help: "Reported controls by risk tier.",
	}, []string{"tenant_id", "risk"})
	skipped := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "secscore_controls_skipped",
		Help: "Controls not reported, by reason.",
	}, []string{"tenant_id", "reason"})
	generated := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "secscore_report_generated_timestamp_seconds",
		Help: "Unix time the report was generated.",
	}, []string{"tenant_id"})

	for _, c := range []prometheus.Collector{scoreGauge, controls, risks, skipped, generated} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("registering metric: %w", err)
		}
	}

	scoreGauge.With(merge(labels, "kind", "current")).Set(m.CurrentScore)
	scoreGauge.With(merge(labels, "kind", "max")).Set(m.MaxScore)
	controls.With(merge(labels, "status", "compliant")).Set(float64(s.Compliant))
	controls.With(merge(labels, "status", "non_compliant")).Set(float64(s.NonCompliant))
	controls.With(merge(labels, "status", "not_applicable")).Set(float64(s.NotApplicable))
	controls.With(merge(labels, "status", "unknown")).Set(float64(s.Unknown))
	risks.With(merge(labels, "risk", "high")).Set(float64(s.HighRisk))
	risks.With(merge(labels, "risk", "medium")).Set(float64(s.MediumRisk))
	risks.With(merge(labels, "risk", "low")).Set(float64(s.LowRisk))
	skipped.With(merge(labels, "reason", "invalid")).Set(float64(s.Invalid))
	skipped.With(merge(labels, "reason", "deprecated")).Set(float64(s.Deprecated))
	if !m.GeneratedAt.IsZero() {
		generated.With(labels).Set(float64(m.GeneratedAt.Unix()))
	}

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

func merge(base prometheus.Labels, k, v string) prometheus.Labels {
	out := make(prometheus.Labels, len(base)+1)
	for bk, bv := range base {
		out[bk] = bv
	}
	out[k] = v
	return out
}
