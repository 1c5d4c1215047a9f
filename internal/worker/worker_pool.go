// ============================================================================
// Timeslice Worker Pool - Worker 生命週期管理
// ============================================================================
//
// Package: internal/worker
// 文件: worker_pool.go
// 功能: 啟動 N 個 Worker goroutine，每個 Worker 擁有獨立的通道對
//
// 架構組件:
//   ┌─────────────┐
//   │ Coordinator │
//   └─────────────┘
//      │ Link 0     │ Link 1
//   ┌──┴───────────┴──┐
//   │      Pool       │
//   │  ┌──────────┐   │
//   │  │ Worker 0 │←── Pipe 0
//   │  │ Worker 1 │←── Pipe 1
//   │  └──────────┘   │
//   └─────────────────┘
//
// 與共享任務 channel 的工作池不同：
//   每個 Worker 只從自己的 Port 讀取，Coordinator 決定哪個 Worker 收到工作。
//
// 生命週期:
//   1. NewPool()  - 創建 Pool
//   2. Start()    - 為每個 Worker 建立 Pipe 並啟動 goroutine
//   3. Links()    - 取得 Coordinator 端的 Link
//   4. Wait()     - 等待所有 Worker 退出（正常情況下由停止訊號觸發）
//   5. Stop()     - 關閉所有 Link，強制 Worker 退出後等待
//
// 錯誤處理:
//   - ErrPoolNotStarted: 未啟動時取 Link
//   - ErrPoolClosed: 已關閉後再操作
//   - Worker.Run 返回的錯誤收集後由 Wait() 一併返回
//
// ============================================================================

package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ChuLiYu/timeslice-sort/internal/transport"
	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

// ============================================================================
// 錯誤定義
// ============================================================================

var (
	// ErrPoolClosed 表示當前 Pool 已關閉
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrPoolNotStarted 表示 Pool 尚未啟動
	ErrPoolNotStarted = errors.New("worker pool not started")
	// ErrPoolAlreadyStarted 防止重複啟動
	ErrPoolAlreadyStarted = errors.New("worker pool already started")
)

// ============================================================================
// 資料結構定義
// ============================================================================

// Pool 管理一組各自擁有通道對的 Worker
type Pool struct {
	bufferSize int
	logger     *slog.Logger

	workers []*Worker
	links   []*transport.PipeLink

	wg      sync.WaitGroup
	errMu   sync.Mutex
	errs    []error
	started bool
	stopped bool
	mu      sync.Mutex
}

// NewPool 建立新的 Worker Pool
// 參數：
//   - bufferSize: 每個方向的通道緩衝大小
//   - logger: 傳給每個 Worker 的 logger
func NewPool(bufferSize int, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Start 啟動 count 個 Worker，ID 依序為 0..count-1
// cfg.ID 會被覆寫，其餘欄位所有 Worker 共用
func (p *Pool) Start(ctx context.Context, count int, cfg Config, opts ...Option) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrPoolAlreadyStarted
	}
	if p.stopped {
		return ErrPoolClosed
	}

	workers := make([]*Worker, 0, count)
	links := make([]*transport.PipeLink, 0, count)
	for i := 0; i < count; i++ {
		link, port := transport.NewPipe(p.bufferSize)
		wcfg := cfg
		wcfg.ID = i
		w, err := New(wcfg, port, p.logger, opts...)
		if err != nil {
			return fmt.Errorf("start worker %d: %w", i, err)
		}
		workers = append(workers, w)
		links = append(links, link)
	}

	for _, w := range workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			if err := w.Run(ctx); err != nil {
				p.errMu.Lock()
				p.errs = append(p.errs, err)
				p.errMu.Unlock()
			}
		}(w)
	}

	p.workers = workers
	p.links = links
	p.started = true
	return nil
}

// Links 返回 Coordinator 端的 Link，順序與 Worker ID 一致
func (p *Pool) Links() ([]transport.Link, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return nil, ErrPoolNotStarted
	}
	if p.stopped {
		return nil, ErrPoolClosed
	}
	out := make([]transport.Link, len(p.links))
	for i, l := range p.links {
		out[i] = l
	}
	return out, nil
}

// Wait 等待所有 Worker 退出，返回它們的錯誤
func (p *Pool) Wait() error {
	p.wg.Wait()
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return errors.Join(p.errs...)
}

// Stop 關閉所有 Link 並等待 Worker 退出
// 正在執行的時間片會先完成，之後 Worker 讀到通道關閉而終止
func (p *Pool) Stop() error {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	links := p.links
	p.mu.Unlock()

	for _, l := range links {
		_ = l.Close()
	}
	return p.Wait()
}

// Stats 返回所有 Worker 的計數器快照
func (p *Pool) Stats() []types.WorkerStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.WorkerStats, len(p.workers))
	for i, w := range p.workers {
		out[i] = w.Stats()
	}
	return out
}

// GetWorkerCount 返回當前 Worker 數量
func (p *Pool) GetWorkerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// IsStarted 檢查 Pool 是否已啟動
func (p *Pool) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}
