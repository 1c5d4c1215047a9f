package journal

// ============================================================================
// 日誌工具函式
// 職責：提供檢視與驗證相關的輔助功能
// ============================================================================

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// GetLastEvent 讀取檔案中的最後一個事件
// 檔案為空時返回 ErrEmptyJournal
func GetLastEvent(path string) (*Event, error) {
	var last *Event
	err := Replay(path, func(event Event) error {
		e := event
		last = &e
		return nil
	})
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, ErrEmptyJournal
	}
	return last, nil
}

// RecoverTail 移除寫到一半的最後一行
//
// 行為：
// - 最後一行無法解析（程序在寫入中途結束）時截斷到上一個完整事件之後
// - 損壞的行後面還有內容時不處理，返回 CorruptionError
// - 返回被移除的位元組數
func RecoverTail(path string) (int64, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("open journal %s: %w", path, err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	var (
		good    int64 // 最後一個完整事件之後的位移
		offset  int64
		line    int
		tornAt  int
		tornErr error
	)
	for {
		raw, readErr := reader.ReadBytes('\n')
		if len(raw) > 0 {
			line++
			offset += int64(len(raw))
			trimmed := bytes.TrimSpace(raw)
			switch {
			case len(trimmed) == 0:
				if tornErr == nil {
					good = offset
				}
			case tornErr != nil:
				return 0, &CorruptionError{Line: tornAt, Cause: tornErr}
			default:
				var event Event
				if err := json.Unmarshal(trimmed, &event); err != nil {
					tornAt, tornErr = line, err
				} else if raw[len(raw)-1] != '\n' {
					// 完整的 JSON 但缺少換行，補上即可繼續追加
					if _, err := file.WriteAt([]byte{'\n'}, offset); err != nil {
						return 0, fmt.Errorf("journal: terminate last line: %w", err)
					}
					good = offset + 1
				} else {
					good = offset
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return 0, fmt.Errorf("journal: read %s: %w", path, readErr)
		}
	}

	if tornErr == nil {
		return 0, nil
	}
	if err := file.Truncate(good); err != nil {
		return 0, fmt.Errorf("journal: truncate %s: %w", path, err)
	}
	return offset - good, nil
}

// CountEvents 計算日誌中的事件總數
func CountEvents(path string) (int, error) {
	count := 0
	err := Replay(path, func(Event) error {
		count++
		return nil
	})
	return count, err
}

// Validate 驗證日誌完整性：格式、checksum 與 seq 連續性
func Validate(path string) error {
	var lastSeq uint64
	return Replay(path, func(event Event) error {
		if event.Seq != lastSeq+1 {
			return fmt.Errorf("%w: expected seq=%d, got %d", ErrSequenceGap, lastSeq+1, event.Seq)
		}
		lastSeq = event.Seq
		return nil
	})
}

// RunSummary 一次排序作業在日誌中的摘要
type RunSummary struct {
	RunID      string
	Events     int
	Dispatches int
	Transfers  int
	Outcome    EventType // DONE / ERROR，尚未結束時為空
	FinishedBy int       // 完成排序的 Worker，Outcome 為 DONE 時有效
	Size       int
	Started    time.Time
	Finished   time.Time
}

// Duration 作業的起訖時間差
func (s RunSummary) Duration() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// Summarize 依 RunID 彙總日誌，順序與首次出現的順序一致
func Summarize(path string) ([]RunSummary, error) {
	var order []string
	runs := make(map[string]*RunSummary)

	err := Replay(path, func(event Event) error {
		s, ok := runs[event.RunID]
		if !ok {
			s = &RunSummary{RunID: event.RunID, FinishedBy: -1, Started: time.UnixMilli(event.Timestamp)}
			runs[event.RunID] = s
			order = append(order, event.RunID)
		}
		s.Events++
		if event.Size > s.Size {
			s.Size = event.Size
		}

		switch event.Type {
		case EventDispatch:
			s.Dispatches++
		case EventForward:
			s.Transfers = event.Transfer
		case EventDone:
			s.Outcome = EventDone
			s.FinishedBy = event.WorkerID
			s.Finished = time.UnixMilli(event.Timestamp)
		case EventError:
			s.Outcome = EventError
			s.Finished = time.UnixMilli(event.Timestamp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]RunSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *runs[id])
	}
	return out, nil
}
