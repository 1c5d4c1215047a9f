package journal

// ============================================================================
// 交接日誌核心實作
// 職責：
// 1. 以 JSON Lines 追加 Coordinator 的每一次分派與交接
// 2. 提供重放功能，用於檢視與稽核
// 3. 重新開啟既有檔案時延續序號
// ============================================================================

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// FileInterface 定義檔案操作所需的方法
// 這允許在測試中對檔案操作進行模擬
type FileInterface interface {
	Write(p []byte) (n int, err error)
	Sync() error
	Close() error
}

// Journal 追加式交接日誌
type Journal struct {
	mu           sync.Mutex
	file         FileInterface
	encoder      *json.Encoder
	path         string
	seq          uint64
	syncOnAppend bool
	closed       bool
	now          func() time.Time
	truncated    int64
}

/*
Open 建立或開啟一個 Journal

行為：
- 檔案不存在時建立，seq 從 0 開始
- 檔案已存在時讀取最後一個事件的 seq 並繼續
- 最後一行寫到一半時先截斷（見 RecoverTail），Truncated 返回移除的位元組數
- 以追加模式開啟，確保寫入不覆蓋
*/
func Open(path string, syncOnAppend bool) (*Journal, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	truncated, err := RecoverTail(path)
	if err != nil {
		file.Close()
		return nil, err
	}

	var seq uint64
	last, err := GetLastEvent(path)
	switch {
	case err == nil:
		seq = last.Seq
	case errors.Is(err, ErrEmptyJournal):
	default:
		file.Close()
		return nil, err
	}

	j := newJournal(file, path, seq, syncOnAppend)
	j.truncated = truncated
	return j, nil
}

func newJournal(file FileInterface, path string, seq uint64, syncOnAppend bool) *Journal {
	return &Journal{
		file:         file,
		encoder:      json.NewEncoder(file),
		path:         path,
		seq:          seq,
		syncOnAppend: syncOnAppend,
		now:          time.Now,
	}
}

// Append 追加一個事件
//
// 行為：
// - 自動遞增 seq，Timestamp 為 0 時填入目前時間
// - 計算 checksum
// - 寫入檔案，syncOnAppend 時同步到磁碟
func (j *Journal) Append(event Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrJournalClosed
	}

	event.Seq = j.seq + 1
	if event.Timestamp == 0 {
		event.Timestamp = j.now().UnixMilli()
	}
	event.Checksum = CalculateChecksum(event)

	if err := j.encoder.Encode(event); err != nil {
		return fmt.Errorf("journal: append seq=%d: %w", event.Seq, err)
	}
	j.seq = event.Seq

	if j.syncOnAppend {
		if err := j.file.Sync(); err != nil {
			return fmt.Errorf("journal: sync seq=%d: %w", event.Seq, err)
		}
	}
	return nil
}

// Sync 將已寫入的事件同步到磁碟
func (j *Journal) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrJournalClosed
	}
	return j.file.Sync()
}

// LastSeq 取得最後寫入的事件序號
func (j *Journal) LastSeq() uint64 {
	if j == nil {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.seq
}

// Truncated 返回 Open 時從檔尾移除的位元組數
func (j *Journal) Truncated() int64 {
	return j.truncated
}

// Path 返回日誌檔案路徑
func (j *Journal) Path() string {
	return j.path
}

// Close 同步並關閉日誌，關閉後不可再用
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true

	if err := j.file.Sync(); err != nil {
		j.file.Close()
		return err
	}
	return j.file.Close()
}

// Replay 依序重放檔案中的所有事件
//
// 行為：
// - 逐行解析，空行略過
// - 驗證每個事件的 checksum
// - 呼叫 handler，遇到錯誤立即停止
func Replay(path string, handler EventHandler) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open journal %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			return &CorruptionError{Line: line, Cause: err}
		}
		if err := VerifyChecksum(event); err != nil {
			return err
		}
		if err := handler(event); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return &CorruptionError{Line: line + 1, Cause: err}
	}
	return nil
}
