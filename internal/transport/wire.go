package transport

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

// Wire field names shared by both directions.
const (
	fieldBuffer   = "buffer"
	fieldLow      = "low"
	fieldHigh     = "high"
	fieldIssuedAt = "issued_at"
	fieldStatus   = "status"
	fieldElapsed  = "elapsed_seconds"
	fieldMessage  = "message"
	fieldWorkerID = "worker_id"
)

// EncodeUnit converts a WorkUnit into its wire form.
func EncodeUnit(u types.WorkUnit) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldBuffer:   encodeBuffer(u.Buffer),
		fieldLow:      structpb.NewNumberValue(float64(u.Range.Low)),
		fieldHigh:     structpb.NewNumberValue(float64(u.Range.High)),
		fieldIssuedAt: structpb.NewStringValue(u.IssuedAt.UTC().Format(time.RFC3339Nano)),
	}}
}

// DecodeUnit parses a WorkUnit from its wire form.
func DecodeUnit(s *structpb.Struct) (types.WorkUnit, error) {
	var u types.WorkUnit
	if s == nil {
		return u, fmt.Errorf("%w: empty work unit", ErrMalformed)
	}

	buf, err := decodeBuffer(s)
	if err != nil {
		return u, err
	}
	low, err := intField(s, fieldLow)
	if err != nil {
		return u, err
	}
	high, err := intField(s, fieldHigh)
	if err != nil {
		return u, err
	}
	raw, err := stringField(s, fieldIssuedAt)
	if err != nil {
		return u, err
	}
	issuedAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return u, fmt.Errorf("%w: %s: %v", ErrMalformed, fieldIssuedAt, err)
	}

	u.Buffer = buf
	u.Range = types.Range{Low: low, High: high}
	u.IssuedAt = issuedAt
	return u, nil
}

// EncodeResult converts a WorkResult into its wire form.
func EncodeResult(r types.WorkResult) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldStatus:   structpb.NewStringValue(string(r.Status)),
		fieldWorkerID: structpb.NewNumberValue(float64(r.WorkerID)),
		fieldBuffer:   encodeBuffer(r.Buffer),
		fieldLow:      structpb.NewNumberValue(float64(r.Range.Low)),
		fieldHigh:     structpb.NewNumberValue(float64(r.Range.High)),
		fieldElapsed:  structpb.NewNumberValue(r.Elapsed.Seconds()),
		fieldMessage:  structpb.NewStringValue(r.Message),
	}}
}

// DecodeResult parses a WorkResult from its wire form. The status must be
// one of the three known tags.
func DecodeResult(s *structpb.Struct) (types.WorkResult, error) {
	var r types.WorkResult
	if s == nil {
		return r, fmt.Errorf("%w: empty result", ErrMalformed)
	}

	status, err := stringField(s, fieldStatus)
	if err != nil {
		return r, err
	}
	r.Status = types.Status(status)
	switch r.Status {
	case types.StatusDone, types.StatusContinue, types.StatusError:
	default:
		return r, fmt.Errorf("%w: unknown status %q", ErrMalformed, status)
	}

	if r.WorkerID, err = intField(s, fieldWorkerID); err != nil {
		return r, err
	}
	if r.Buffer, err = decodeBuffer(s); err != nil {
		return r, err
	}
	if r.Range.Low, err = intField(s, fieldLow); err != nil {
		return r, err
	}
	if r.Range.High, err = intField(s, fieldHigh); err != nil {
		return r, err
	}
	seconds, err := numberField(s, fieldElapsed)
	if err != nil {
		return r, err
	}
	r.Elapsed = time.Duration(seconds * float64(time.Second))
	r.Message = s.GetFields()[fieldMessage].GetStringValue()
	return r, nil
}

// encodeBuffer packs the elements as zigzag varints and carries them as a
// base64 string. Every int64 survives exactly, and small values take a few
// bytes each instead of a float64 list entry.
func encodeBuffer(buf types.Buffer) *structpb.Value {
	packed := make([]byte, 0, len(buf)*3)
	for _, v := range buf {
		packed = binary.AppendVarint(packed, int64(v))
	}
	return structpb.NewStringValue(base64.StdEncoding.EncodeToString(packed))
}

func decodeBuffer(s *structpb.Struct) (types.Buffer, error) {
	raw, err := stringField(s, fieldBuffer)
	if err != nil {
		return nil, err
	}
	packed, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, fieldBuffer, err)
	}

	buf := make(types.Buffer, 0, len(packed))
	for len(packed) > 0 {
		v, n := binary.Varint(packed)
		if n <= 0 {
			return nil, fmt.Errorf("%w: %s[%d] is not a valid varint", ErrMalformed, fieldBuffer, len(buf))
		}
		if int64(int(v)) != v {
			return nil, fmt.Errorf("%w: %s[%d] overflows int", ErrMalformed, fieldBuffer, len(buf))
		}
		buf = append(buf, int(v))
		packed = packed[n:]
	}
	return buf, nil
}

func numberField(s *structpb.Struct, name string) (float64, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformed, name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a number", ErrMalformed, name)
	}
	return n.NumberValue, nil
}

func intField(s *structpb.Struct, name string) (int, error) {
	f, err := numberField(s, name)
	if err != nil {
		return 0, err
	}
	if !isInteger(f) {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrMalformed, name)
	}
	return int(f), nil
}

func stringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrMalformed, name)
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", ErrMalformed, name)
	}
	return str.StringValue, nil
}

func isInteger(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)
}
