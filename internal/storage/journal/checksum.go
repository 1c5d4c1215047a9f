package journal

// ============================================================================
// 校驗和計算
// 職責：計算與驗證日誌事件的 CRC32 校驗和
// ============================================================================

import (
	"hash/crc32"
	"strconv"
	"strings"
)

// CalculateChecksum 計算事件的 CRC32 校驗和
//
// 涵蓋欄位：Seq、Type、RunID、WorkerID、Transfer、Low、High、Size、Message
// 不包含 Timestamp 與 Prefix（僅供觀察，不影響重放結果）
func CalculateChecksum(event Event) uint32 {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(event.Seq, 10))
	for _, field := range []string{
		string(event.Type),
		event.RunID,
		strconv.Itoa(event.WorkerID),
		strconv.Itoa(event.Transfer),
		strconv.Itoa(event.Low),
		strconv.Itoa(event.High),
		strconv.Itoa(event.Size),
		event.Message,
	} {
		b.WriteByte('|')
		b.WriteString(field)
	}

	// 使用 CRC32-IEEE 計算校驗和
	return crc32.ChecksumIEEE([]byte(b.String()))
}

// VerifyChecksum 驗證事件的校驗和，失敗時返回 *ChecksumError
func VerifyChecksum(event Event) error {
	expected := CalculateChecksum(event)
	if event.Checksum != expected {
		return &ChecksumError{Seq: event.Seq, Expected: expected, Actual: event.Checksum}
	}
	return nil
}
