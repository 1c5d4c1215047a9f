package report

// ============================================================================
// 職責說明：
// 1. 將排序作業的結果序列化為 JSON 報告檔
// 2. 使用原子性寫入（temp file + rename）防止讀到半寫入的報告
// 3. 載入時驗證 schema 版本相容性
// ============================================================================

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

// SchemaVersion 目前的報告格式版本
const SchemaVersion = 1

// ============================================================================
// 錯誤定義
// ============================================================================

var (
	ErrCorruptedReport     = errors.New("report file is corrupted")
	ErrIncompatibleVersion = errors.New("report schema version is incompatible")
	ErrReportNotFound      = errors.New("report file not found")
)

// ============================================================================
// 資料結構定義
// ============================================================================

// Record 一次排序作業的結果
type Record struct {
	SchemaVer    int                 `json:"schema_ver"`
	RunID        string              `json:"run_id"`
	Algorithm    types.Algorithm     `json:"algorithm"`
	VectorSize   int                 `json:"vector_size"`
	TimeLimitMs  int64               `json:"time_limit_ms"`
	Transfers    int                 `json:"transfers"`
	Slices       int                 `json:"slices"`
	FinishedBy   int                 `json:"finished_by"`
	TotalSeconds float64             `json:"total_seconds"`
	Sorted       bool                `json:"sorted"`
	Prefix       []int               `json:"prefix"`
	Workers      []types.WorkerStats `json:"workers,omitempty"`
	CreatedAt    int64               `json:"created_at"` // Unix 毫秒
}

// TotalElapsed 以 time.Duration 表示的總耗時
func (r Record) TotalElapsed() time.Duration {
	return time.Duration(r.TotalSeconds * float64(time.Second))
}

// Store 報告檔管理器
type Store struct {
	path string     // 報告檔案路徑
	mu   sync.Mutex // 保護檔案操作
}

// ============================================================================
// 核心方法實作
// ============================================================================

// NewStore 建立報告管理器實例
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Write 原子性寫入報告
//
// 使用原子性寫入流程：
// 1. 寫入臨時檔案（.tmp）
// 2. 使用 os.Rename 原子性替換原始檔案
func (s *Store) Write(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.SchemaVer = SchemaVersion
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().UnixMilli()
	}

	// 帶縮排，方便人工閱讀
	jsonBytes, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write temp report: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename report: %w", err)
	}
	return nil
}

// Load 載入報告
//
// 與快照不同，沒有「空報告」的概念：檔案不存在時返回 ErrReportNotFound
func (s *Store) Load() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec Record
	jsonBytes, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return rec, fmt.Errorf("%w: %s", ErrReportNotFound, s.path)
		}
		return rec, fmt.Errorf("failed to read report: %w", err)
	}

	if err := json.Unmarshal(jsonBytes, &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrCorruptedReport, err)
	}

	if rec.SchemaVer != SchemaVersion {
		return rec, fmt.Errorf("%w: got %d, want %d", ErrIncompatibleVersion, rec.SchemaVer, SchemaVersion)
	}
	return rec, nil
}

// Exists 檢查報告檔案是否存在
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Path 取得報告檔案路徑
func (s *Store) Path() string {
	return s.path
}
