package worker

import (
	"errors"
	"time"

	"github.com/ChuLiYu/timeslice-sort/internal/clock"
	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

var (
	// ErrAlgorithmFault 排序演算法在時間片內 panic
	ErrAlgorithmFault = errors.New("sorting algorithm fault")
	// ErrInvalidWorker Worker 配置不合法
	ErrInvalidWorker = errors.New("invalid worker config")
)

// Config 建立 Worker 所需的參數
type Config struct {
	ID        int             // Worker 身份（0 或 1），用於日誌與回覆
	Algorithm types.Algorithm // 使用的排序演算法
	TimeLimit time.Duration   // 每個時間片的預算
	Clock     clock.Clock     // 時間來源，nil 時使用真實時鐘
}

// Observer 接收每個時間片的結果（例如 Prometheus Collector）
type Observer interface {
	ObserveSlice(workerID int, outcome types.Status, elapsed time.Duration)
}

// Option 修改 Worker 的可選設定
type Option func(*Worker)

// WithObserver 設定時間片觀察者
func WithObserver(o Observer) Option {
	return func(w *Worker) { w.observer = o }
}
