package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the service's Prometheus collectors on its own registry.
type Recorder struct {
	reg *prometheus.Registry

	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	Clusters          *prometheus.GaugeVec
	CampaignSyncs     *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signals_operations_total",
			Help: "Signal store operations by outcome",
		}, []string{"op", "result"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signals_operation_duration_seconds",
			Help:    "Signal store operation latency in seconds",
			Buckets: []float64{.00005, .0001, .0005, .001, .005, .01, .05},
		}, []string{"op"}),
		Clusters: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "signals_clusters",
			Help: "Signal clusters per client",
		}, []string{"client"}),
		CampaignSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signals_campaign_sync_total",
			Help: "Campaign directory syncs by outcome",
		}, []string{"result"}),
	}
	r.reg.MustRegister(
		r.Operations,
		r.OperationDuration,
		r.Clusters,
		r.CampaignSyncs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe records one operation; result is "ok" or the error class.
func (r *Recorder) Observe(op string, start time.Time, result string) {
	r.Operations.WithLabelValues(op, result).Inc()
	r.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (r *Recorder) SetClusters(clientID string, n int) {
	r.Clusters.WithLabelValues(clientID).Set(float64(n))
}

func (r *Recorder) Sync(result string) { r.CampaignSyncs.WithLabelValues(result).Inc() }

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

func (r *Recorder) Registry() *prometheus.Registry { return r.reg }
