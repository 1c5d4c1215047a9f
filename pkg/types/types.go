// Package types 定義了 timeslice 系統中使用的核心領域模型
package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Buffer 待排序的資料向量
// 同一時間只有一個元件持有寫入權，所有權隨訊息一起轉移
type Buffer []int

// Clone 深拷貝 Buffer，用於跨通道傳遞時切斷別名
func (b Buffer) Clone() Buffer {
	if b == nil {
		return nil
	}
	out := make(Buffer, len(b))
	copy(out, b)
	return out
}

// Prefix 返回前 n 個元素的拷貝（用於日誌）
func (b Buffer) Prefix(n int) []int {
	if n > len(b) {
		n = len(b)
	}
	out := make([]int, n)
	copy(out, b[:n])
	return out
}

// Range 閉區間 [Low, High]，標示演算法負責的索引範圍
type Range struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// FullRange 返回長度為 n 的完整區間 [0, n-1]
// n == 0 時返回 [0, -1]，演算法會將其視為空區間
func FullRange(n int) Range {
	return Range{Low: 0, High: n - 1}
}

// Len 區間內的元素個數
func (r Range) Len() int {
	if r.High < r.Low {
		return 0
	}
	return r.High - r.Low + 1
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.Low, r.High)
}

// WorkUnit Coordinator 發送給 Worker 的工作單元
// IssuedAt 每次分派時由 Coordinator 重設，不跨 Worker 保留
type WorkUnit struct {
	Buffer   Buffer    `json:"buffer"`
	Range    Range     `json:"range"`
	IssuedAt time.Time `json:"issued_at"`
}

// Status WorkResult 的標籤
type Status string

// 定義回覆狀態常數
const (
	StatusDone     Status = "DONE"     // 在本時間片內完成排序並通過驗證
	StatusContinue Status = "CONTINUE" // 時間預算耗盡，需交給另一個 Worker 繼續
	StatusError    Status = "ERROR"    // 排序過程中發生錯誤
)

// WorkResult Worker 回覆給 Coordinator 的結果（標籤聯合）
//
//   - Done:     Buffer, Elapsed
//   - Continue: Buffer, Range（原樣回傳）, Elapsed
//   - Error:    Message
type WorkResult struct {
	Status   Status        `json:"status"`
	WorkerID int           `json:"worker_id"`
	Buffer   Buffer        `json:"buffer,omitempty"`
	Range    Range         `json:"range"`
	Elapsed  time.Duration `json:"elapsed"`
	Message  string        `json:"message,omitempty"`
}

// Done 建立 Done 回覆
func Done(workerID int, buf Buffer, elapsed time.Duration) WorkResult {
	return WorkResult{Status: StatusDone, WorkerID: workerID, Buffer: buf, Elapsed: elapsed}
}

// Continue 建立 Continue 回覆，Range 原樣回傳
func Continue(workerID int, buf Buffer, rng Range, elapsed time.Duration) WorkResult {
	return WorkResult{Status: StatusContinue, WorkerID: workerID, Buffer: buf, Range: rng, Elapsed: elapsed}
}

// Failure 建立 Error 回覆
func Failure(workerID int, message string) WorkResult {
	return WorkResult{Status: StatusError, WorkerID: workerID, Message: message}
}

// RequestKind Worker 入站訊息種類
type RequestKind int

const (
	RequestWork RequestKind = iota // 攜帶 WorkUnit
	RequestStop                    // 停止訊號（與 WorkUnit 區分的哨兵）
)

// Request Worker 的入站訊息：WorkUnit 或停止訊號
type Request struct {
	Kind RequestKind
	Unit WorkUnit
}

// Work 包裝一個 WorkUnit 請求
func Work(unit WorkUnit) Request {
	return Request{Kind: RequestWork, Unit: unit}
}

// Stop 停止訊號
func Stop() Request {
	return Request{Kind: RequestStop}
}

// WorkerState Worker 狀態機的狀態
type WorkerState string

const (
	StateIdle       WorkerState = "idle"       // 等待工作單元
	StateSorting    WorkerState = "sorting"    // 正在執行時間片
	StateTerminated WorkerState = "terminated" // 已收到停止訊號，終止
)

// WorkerStats 每個 Worker 的計數器與身份
type WorkerStats struct {
	ID          int         `json:"id"`
	State       WorkerState `json:"state"`
	Iterations  int         `json:"iterations"`  // 收到的工作單元數
	Invocations int         `json:"invocations"` // 實際呼叫排序演算法的次數
	LastOutcome Status      `json:"last_outcome,omitempty"`
}

// Algorithm 排序演算法名稱
type Algorithm string

const (
	Quicksort Algorithm = "quicksort"
	Mergesort Algorithm = "mergesort"
	Heapsort  Algorithm = "heapsort"
)

// Algorithms 所有支援的演算法
var Algorithms = []Algorithm{Quicksort, Mergesort, Heapsort}

// ErrUnknownAlgorithm 未知的演算法名稱
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// ParseAlgorithm 解析演算法名稱（不分大小寫）
func ParseAlgorithm(s string) (Algorithm, error) {
	name := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range Algorithms {
		if a == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want quicksort, mergesort or heapsort)", ErrUnknownAlgorithm, s)
}

// RunConfig 一次排序作業的輸入，核心收到時已經過驗證
type RunConfig struct {
	VectorSize int           `json:"vector_size"`
	Algorithm  Algorithm     `json:"algorithm"`
	TimeLimit  time.Duration `json:"time_limit"` // 每個 Worker 每個時間片的預算
}

// ErrInvalidConfig RunConfig 驗證失敗
var ErrInvalidConfig = errors.New("invalid run config")

// Validate 驗證 RunConfig
// TimeLimit 為 0 是允許的：每個時間片只完成一個原子步驟就讓出
func (c RunConfig) Validate() error {
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive, got %d", ErrInvalidConfig, c.VectorSize)
	}
	if _, err := ParseAlgorithm(string(c.Algorithm)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.TimeLimit < 0 {
		return fmt.Errorf("%w: time limit must not be negative, got %s", ErrInvalidConfig, c.TimeLimit)
	}
	return nil
}
