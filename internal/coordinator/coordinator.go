// ============================================================================
// Timeslice Coordinator - 交接協調器
// ============================================================================
//
// Package: internal/coordinator
// 文件: coordinator.go
// 功能: 把向量交給 Worker 0，在兩個 Worker 之間轉發未完成的工作，直到排序完成
//
// 協議:
//
//   Coordinator                 Worker 0            Worker 1
//       │── WorkUnit [0,n-1] ──>│                    │
//       │<──── Continue ────────│                    │
//       │── WorkUnit (同一 Range) ──────────────────>│
//       │<──── Continue ─────────────────────────────│
//       │── WorkUnit ──────────>│                    │
//       │<──── Done ────────────│                    │
//       │── Stop ──────────────>│── Stop ───────────>│
//
// 輪詢:
//   每輪先輪詢 Worker 0 再輪詢 Worker 1，每次最多等待 PollInterval。
//   任何時刻只有一個 Worker 持有向量，另一個 Worker 回覆即屬協議錯誤。
//
// 結束條件:
//   - Done:      記錄總耗時與交接次數，停止兩個 Worker
//   - Error:     停止兩個 Worker，返回 ErrWorkerFault
//   - 協議錯誤:  未知狀態、通道關閉、非持有者回覆，返回 ErrProtocol
//   - ctx 取消:  停止兩個 Worker，返回 ctx.Err()
//
// 停止流程:
//   同時對兩個 Link 發送停止訊號並等待終止（errgroup）。
//   正在執行時間片的 Worker 會先完成該時間片。
//
// ============================================================================

package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ChuLiYu/timeslice-sort/internal/clock"
	"github.com/ChuLiYu/timeslice-sort/internal/logging"
	"github.com/ChuLiYu/timeslice-sort/internal/metrics"
	"github.com/ChuLiYu/timeslice-sort/internal/storage/journal"
	"github.com/ChuLiYu/timeslice-sort/internal/transport"
	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

// ============================================================================
// 錯誤定義
// ============================================================================

var (
	// ErrProtocol 通道或訊息不符合協議，作業無法繼續
	ErrProtocol = errors.New("coordinator: protocol fault")
	// ErrWorkerFault Worker 回覆了 Error
	ErrWorkerFault = errors.New("coordinator: worker reported an error")
)

// DefaultPollInterval 每次輪詢的最長等待時間
const DefaultPollInterval = time.Second

// logPrefix 日誌與日誌檔中顯示的前綴元素個數
const logPrefix = 10

// ============================================================================
// 資料結構定義
// ============================================================================

// Config Coordinator 配置
type Config struct {
	PollInterval time.Duration   // 每個 Link 每輪的最長等待
	Clock        clock.Clock     // 時間來源，nil 時使用真實時鐘
	Algorithm    types.Algorithm // Worker 使用的演算法，只用於報告
}

// Recorder 接收作業層級的指標（例如 Prometheus Collector）
type Recorder interface {
	RecordDispatch(workerID int)
	RecordTransfer()
	RecordJobStarted()
	RecordJobDone(total time.Duration, transfers int)
	RecordJobFailed(outcome string)
}

// Journal 接收交接事件
type Journal interface {
	Append(event journal.Event) error
}

// Report 一次排序作業的結果
type Report struct {
	RunID        string
	Algorithm    types.Algorithm
	Buffer       types.Buffer  // 排序後的向量，只有 Done 時有效
	Transfers    int           // Continue 觸發的交接次數
	TotalElapsed time.Duration // 從初始分派到收到 Done
	FinishedBy   int           // 回覆 Done 的 Worker，未完成時為 -1
	Slices       int           // 收到的回覆總數
}

// Coordinator 交接協調器
type Coordinator struct {
	cfg     Config
	links   [2]transport.Link
	logger  *slog.Logger
	metrics Recorder
	journal Journal
	runID   string
}

// Option 修改 Coordinator 的可選設定
type Option func(*Coordinator)

// WithLogger 設定 logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithMetrics 設定指標接收者
func WithMetrics(r Recorder) Option {
	return func(c *Coordinator) { c.metrics = r }
}

// WithJournal 設定交接日誌
func WithJournal(j Journal) Option {
	return func(c *Coordinator) { c.journal = j }
}

// WithRunID 指定作業 ID，預設為隨機 UUID
func WithRunID(id string) Option {
	return func(c *Coordinator) { c.runID = id }
}

// ============================================================================
// 核心方法實作
// ============================================================================

// New 建立 Coordinator
func New(cfg Config, links [2]transport.Link, opts ...Option) (*Coordinator, error) {
	for i, l := range links {
		if l == nil {
			return nil, fmt.Errorf("coordinator: link %d is nil", i)
		}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}

	c := &Coordinator{cfg: cfg, links: links}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With(logging.SourceKey, "Coordinator")
	if c.runID == "" {
		c.runID = uuid.NewString()
	}
	return c, nil
}

// RunID 返回作業 ID
func (c *Coordinator) RunID() string { return c.runID }

// Run 執行一次排序作業，直到 Done、Error、協議錯誤或 ctx 取消
// 返回時兩個 Worker 都已收到停止訊號並終止（取消路徑同樣如此）
func (c *Coordinator) Run(ctx context.Context, buf types.Buffer) (Report, error) {
	report := Report{
		RunID:      c.runID,
		Algorithm:  c.cfg.Algorithm,
		FinishedBy: -1,
	}
	start := c.cfg.Clock.Now()
	if c.metrics != nil {
		c.metrics.RecordJobStarted()
	}

	c.logger.Info("Sending initial vector to Worker 0", "run_id", c.runID, "size", len(buf))
	rng := types.FullRange(len(buf))
	if err := c.dispatch(ctx, 0, buf, rng, 0, journal.EventDispatch); err != nil {
		return report, c.abort(ctx, err)
	}

	holder := 0
	for {
		for i := range c.links {
			res, ok, err := c.links[i].Poll(ctx, c.cfg.PollInterval)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return report, c.abort(ctx, ctxErr)
				}
				return report, c.abort(ctx, fmt.Errorf("%w: worker %d: %v", ErrProtocol, i, err))
			}
			if !ok {
				continue
			}

			report.Slices++
			if i != holder {
				return report, c.abort(ctx, fmt.Errorf("%w: worker %d replied while worker %d holds the vector", ErrProtocol, i, holder))
			}

			switch res.Status {
			case types.StatusDone:
				report.Buffer = res.Buffer
				report.TotalElapsed = c.cfg.Clock.Now().Sub(start)
				report.FinishedBy = i
				c.finish(res, report)
				return report, c.shutdown(ctx, report.Transfers)

			case types.StatusContinue:
				c.record(journal.Event{
					Type: journal.EventContinue, WorkerID: i, Transfer: report.Transfers,
					Low: res.Range.Low, High: res.Range.High, Size: len(res.Buffer),
					Prefix: res.Buffer.Prefix(logPrefix), ElapsedMs: ms(res.Elapsed),
				})
				report.Transfers++
				next := 1 - i
				c.logger.Info(fmt.Sprintf("Transfer #%d: Worker %d → Worker %d", report.Transfers, i, next))
				if c.metrics != nil {
					c.metrics.RecordTransfer()
				}
				if err := c.dispatch(ctx, next, res.Buffer, res.Range, report.Transfers, journal.EventForward); err != nil {
					return report, c.abort(ctx, err)
				}
				holder = next

			case types.StatusError:
				c.logger.Error(fmt.Sprintf("Worker %d reported an error: %s", i, res.Message))
				c.record(journal.Event{Type: journal.EventError, WorkerID: i, Transfer: report.Transfers, Message: res.Message})
				err := fmt.Errorf("%w: worker %d: %s", ErrWorkerFault, i, res.Message)
				return report, c.abort(ctx, err)

			default:
				return report, c.abort(ctx, fmt.Errorf("%w: unknown status %q from worker %d", ErrProtocol, res.Status, i))
			}
		}
	}
}

// dispatch 把工作單元送到指定 Worker，IssuedAt 每次重設
func (c *Coordinator) dispatch(ctx context.Context, to int, buf types.Buffer, rng types.Range, transfer int, kind journal.EventType) error {
	unit := types.WorkUnit{Buffer: buf, Range: rng, IssuedAt: c.cfg.Clock.Now()}
	c.record(journal.Event{
		Type: kind, WorkerID: to, Transfer: transfer,
		Low: rng.Low, High: rng.High, Size: len(buf), Prefix: buf.Prefix(logPrefix),
	})
	if err := c.links[to].Send(ctx, types.Work(unit)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: send to worker %d: %v", ErrProtocol, to, err)
	}
	if c.metrics != nil {
		c.metrics.RecordDispatch(to)
	}
	return nil
}

func (c *Coordinator) finish(res types.WorkResult, report Report) {
	c.logger.Info(fmt.Sprintf("Sort completed by Worker %d!", report.FinishedBy))
	c.logger.Info(fmt.Sprintf("Total time: %.2fs", report.TotalElapsed.Seconds()))
	c.logger.Info(fmt.Sprintf("Number of transfers: %d", report.Transfers))
	c.logger.Info(fmt.Sprintf("Sorted vector (first elements): %v", res.Buffer.Prefix(logPrefix)))

	c.record(journal.Event{
		Type: journal.EventDone, WorkerID: report.FinishedBy, Transfer: report.Transfers,
		Size: len(res.Buffer), Prefix: res.Buffer.Prefix(logPrefix), ElapsedMs: ms(report.TotalElapsed),
	})
	if c.metrics != nil {
		c.metrics.RecordJobDone(report.TotalElapsed, report.Transfers)
	}
}

// abort 停止兩個 Worker 後返回 cause
func (c *Coordinator) abort(ctx context.Context, cause error) error {
	if c.metrics != nil {
		outcome := metrics.OutcomeError
		if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
			outcome = metrics.OutcomeCancelled
		}
		c.metrics.RecordJobFailed(outcome)
	}
	c.logger.Error("Job aborted", "error", cause)
	if err := c.shutdown(ctx, -1); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// shutdown 同時停止兩個 Worker 並等待它們終止
// 使用不受取消影響的 context：取消路徑同樣要等 Worker 結束
func (c *Coordinator) shutdown(ctx context.Context, transfers int) error {
	c.logger.Info("Sending stop signal to workers")
	c.record(journal.Event{Type: journal.EventStop, WorkerID: -1, Transfer: transfers})

	stopCtx := context.WithoutCancel(ctx)
	var g errgroup.Group
	for i, l := range c.links {
		g.Go(func() error {
			if err := l.Send(stopCtx, types.Stop()); err != nil && !errors.Is(err, transport.ErrClosed) {
				return fmt.Errorf("stop worker %d: %w", i, err)
			}
			// ErrClosed：Link 已關閉，沒有可等待的 Worker
			if err := l.Wait(stopCtx); err != nil && !errors.Is(err, transport.ErrClosed) {
				return fmt.Errorf("wait worker %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	c.logger.Info("Workers stopped")
	return nil
}

// record 寫入交接日誌，失敗只記錄警告，不影響作業
func (c *Coordinator) record(event journal.Event) {
	if c.journal == nil {
		return
	}
	event.RunID = c.runID
	if err := c.journal.Append(event); err != nil {
		c.logger.Warn("journal append failed", "type", event.Type, "error", err)
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
