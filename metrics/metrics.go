package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder 导入过程的 Prometheus 指标
// nil Recorder 的所有方法都是空操作
type Recorder struct {
	merges   *prometheus.CounterVec
	features *prometheus.CounterVec
	latency  prometheus.Histogram
}

// New 创建并注册指标
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linegraph_merge_total",
			Help: "Candidate edges merged, by outcome status and merge case.",
		}, []string{"status", "case"}),
		features: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linegraph_features_total",
			Help: "Source features processed, by result.",
		}, []string{"result"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "linegraph_merge_seconds",
			Help:    "Duration of a single merge transaction.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
	}
	if reg != nil {
		reg.MustRegister(r.merges, r.features, r.latency)
	}
	return r
}

// ObserveMerge 记录一次合并
func (r *Recorder) ObserveMerge(status, mergeCase string, d time.Duration) {
	if r == nil {
		return
	}
	r.merges.WithLabelValues(status, mergeCase).Inc()
	r.latency.Observe(d.Seconds())
}

// ObserveFeature 记录一个要素的处理结果: "ok" / "skipped"
func (r *Recorder) ObserveFeature(result string) {
	if r == nil {
		return
	}
	r.features.WithLabelValues(result).Inc()
}
