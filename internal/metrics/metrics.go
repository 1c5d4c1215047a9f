// ============================================================================
// Timeslice Metrics - Prometheus 監控指標
// ============================================================================
//
// Package: internal/metrics
// 文件: metrics.go
// 功能: 收集排序作業與時間片的運行指標，支持 Prometheus 監控
//
// 指標分類:
//
//   1. 計數器 (Counter)：
//      - timeslice_slices_total{worker,outcome}: 每個 Worker 完成的時間片數
//      - timeslice_dispatches_total{worker}: Coordinator 發出的工作單元數
//      - timeslice_transfers_total: Continue 觸發的交接次數
//      - timeslice_jobs_total{outcome}: 作業結果（done / error / cancelled）
//
//   2. 分佈 (Histogram)：
//      - timeslice_slice_duration_seconds{worker}: 單一時間片耗時
//      - timeslice_job_duration_seconds: 作業總耗時
//
//   3. 瞬時值 (Gauge)：
//      - timeslice_jobs_in_flight: 執行中的作業數
//      - timeslice_last_job_transfers: 最近一次作業的交接次數
//
// Prometheus 查詢示例:
//
//   # 每個作業平均交接次數
//   rate(timeslice_transfers_total[5m]) / rate(timeslice_jobs_total{outcome="done"}[5m])
//
//   # 95 分位時間片耗時
//   histogram_quantile(0.95, timeslice_slice_duration_seconds_bucket)
//
// HTTP 端點:
//   /metrics 由 NewRouter 暴露（見 http.go）
//
// ============================================================================

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

const namespace = "timeslice"

// 作業結果標籤
const (
	OutcomeDone      = "done"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

// sliceBuckets 時間片通常在預算附近結束，預算一般為毫秒到秒級
var sliceBuckets = []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// Collector Prometheus 指標收集器
type Collector struct {
	// 時間片相關
	slices        *prometheus.CounterVec
	sliceDuration *prometheus.HistogramVec

	// Coordinator 相關
	dispatches *prometheus.CounterVec
	transfers  prometheus.Counter

	// 作業相關
	jobs          *prometheus.CounterVec
	jobDuration   prometheus.Histogram
	jobsInFlight  prometheus.Gauge
	lastTransfers prometheus.Gauge
}

// NewCollector 創建新的指標收集器並註冊到 reg
// reg 為 nil 時使用 prometheus.DefaultRegisterer
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		slices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slices_total",
			Help:      "Total number of time slices executed, by worker and outcome",
		}, []string{"worker", "outcome"}),
		sliceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "slice_duration_seconds",
			Help:      "Wall time spent in a single time slice",
			Buckets:   sliceBuckets,
		}, []string{"worker"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Total number of work units sent to each worker",
		}, []string{"worker"}),
		transfers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Total number of handoffs between workers",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Total number of sort jobs, by outcome",
		}, []string{"outcome"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "End-to-end duration of completed sort jobs",
			Buckets:   prometheus.DefBuckets,
		}),
		jobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_in_flight",
			Help:      "Current number of running sort jobs",
		}),
		lastTransfers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_job_transfers",
			Help:      "Number of handoffs taken by the most recent completed job",
		}),
	}

	// 註冊所有指標
	reg.MustRegister(
		c.slices,
		c.sliceDuration,
		c.dispatches,
		c.transfers,
		c.jobs,
		c.jobDuration,
		c.jobsInFlight,
		c.lastTransfers,
	)
	return c
}

// ObserveSlice 記錄一個時間片的結果
func (c *Collector) ObserveSlice(workerID int, outcome types.Status, elapsed time.Duration) {
	w := strconv.Itoa(workerID)
	c.slices.WithLabelValues(w, string(outcome)).Inc()
	c.sliceDuration.WithLabelValues(w).Observe(elapsed.Seconds())
}

// RecordDispatch 記錄工作單元分派
func (c *Collector) RecordDispatch(workerID int) {
	c.dispatches.WithLabelValues(strconv.Itoa(workerID)).Inc()
}

// RecordTransfer 記錄一次交接
func (c *Collector) RecordTransfer() {
	c.transfers.Inc()
}

// RecordJobStarted 記錄作業開始
func (c *Collector) RecordJobStarted() {
	c.jobsInFlight.Inc()
}

// RecordJobDone 記錄作業完成
func (c *Collector) RecordJobDone(total time.Duration, transfers int) {
	c.jobsInFlight.Dec()
	c.jobs.WithLabelValues(OutcomeDone).Inc()
	c.jobDuration.Observe(total.Seconds())
	c.lastTransfers.Set(float64(transfers))
}

// RecordJobFailed 記錄作業失敗，outcome 為 OutcomeError 或 OutcomeCancelled
func (c *Collector) RecordJobFailed(outcome string) {
	c.jobsInFlight.Dec()
	c.jobs.WithLabelValues(outcome).Inc()
}
