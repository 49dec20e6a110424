package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Responsible for encoding and decoding pairs moved in and out of a Storage
// as a byte stream (e.g. table dumps)
type Codec struct{}

// Encoding record format:
// - total record length, excluding itself (uint32 == 4 bytes)
// - body, protobuf wire format:
//   - field 1: key (bytes)
//   - field 2: kind (varint)
//   - { one of, depending on kind }
//     - field 3: int (zigzag varint)
//     - field 4: float (fixed64)
//     - field 5: string (bytes)
//     - field 6: bool (varint)
//     - field 7: binary (bytes)
//   - { /one of }
// - checksum of body (crc32 == 4 bytes)

const (
	fieldKey protowire.Number = iota + 1
	fieldKind
	fieldInt
	fieldFloat
	fieldString
	fieldBool
	fieldBinary
)

// upper bound on a single record, guards against allocating for garbage lengths
const maxRecordLen = 64 << 20

// Encode encodes the pair and returns a byte array ready to be written out
func (c *Codec) Encode(pair Kvpair) ([]byte, error) {
	var body []byte
	body = protowire.AppendTag(body, fieldKey, protowire.BytesType)
	body = protowire.AppendString(body, pair.Key)
	body = appendValue(body, pair.Value)

	totalLength := len(body) + crc32.Size
	if totalLength > maxRecordLen {
		return nil, fmt.Errorf("record for key %q too large. len=%d, max=%d", pair.Key, totalLength, maxRecordLen)
	}

	buf := bytes.Buffer{}
	buf.Grow(4 + totalLength)
	if err := binary.Write(&buf, binary.BigEndian, uint32(totalLength)); err != nil {
		return nil, fmt.Errorf("failed to encode total record length: %w", err)
	}

	if n, err := buf.Write(body); n != len(body) {
		return nil, fmt.Errorf("failed to write full record to buffer. wrote=%d, len=%d", n, len(body))
	} else if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	if err := binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(body)); err != nil {
		return nil, fmt.Errorf("failed to encode checksum: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode takes a single encoded record and decodes it into a pair. Malformed
// records and checksum mismatches are reported as BackendFault errors
func (c *Codec) Decode(record []byte) (Kvpair, error) {
	return c.DecodeFromReader(bytes.NewReader(record))
}

// DecodeFromReader reads the next record from reader. io.EOF is returned unwrapped
// when the reader is exhausted cleanly between records
func (c *Codec) DecodeFromReader(reader io.Reader) (Kvpair, error) {
	var totalLen uint32
	if err := binary.Read(reader, binary.BigEndian, &totalLen); errors.Is(err, io.EOF) {
		return Kvpair{}, io.EOF
	} else if err != nil {
		return Kvpair{}, Faultf("decode", "failed to read record length: %w", err)
	}

	if totalLen < crc32.Size || totalLen > maxRecordLen {
		return Kvpair{}, Faultf("decode", "invalid record length %d", totalLen)
	}

	data := make([]byte, totalLen)
	if n, err := io.ReadFull(reader, data); err != nil {
		return Kvpair{}, Faultf("decode", "failed to read record. read=%d, expected=%d: %w", n, len(data), err)
	}

	body := data[:totalLen-crc32.Size]
	expectedChecksum := binary.BigEndian.Uint32(data[totalLen-crc32.Size:])

	if actualChecksum := crc32.ChecksumIEEE(body); actualChecksum != expectedChecksum {
		return Kvpair{}, Faultf("decode", "checksum of record does not match. expected=%d, actual=%d",
			expectedChecksum, actualChecksum)
	}

	pair, err := decodeBody(body)
	if err != nil {
		return Kvpair{}, Faultf("decode", "malformed record: %w", err)
	}

	return pair, nil
}

// MarshalBinary encodes the value using the same field layout as Codec records
func (v Value) MarshalBinary() ([]byte, error) {
	return appendValue(nil, v), nil
}

// UnmarshalBinary decodes data produced by MarshalBinary
func (v *Value) UnmarshalBinary(data []byte) error {
	pair, err := decodeBody(data)
	if err != nil {
		return NewError(BackendFault, "unmarshal", "", "", err)
	}
	*v = pair.Value
	return nil
}

func appendValue(b []byte, v Value) []byte {
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(v.kind))

	switch v.kind {
	case KindInt:
		b = protowire.AppendTag(b, fieldInt, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(v.i))
	case KindFloat:
		b = protowire.AppendTag(b, fieldFloat, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(v.f))
	case KindString:
		b = protowire.AppendTag(b, fieldString, protowire.BytesType)
		b = protowire.AppendString(b, v.s)
	case KindBool:
		b = protowire.AppendTag(b, fieldBool, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(v.b))
	case KindBinary:
		b = protowire.AppendTag(b, fieldBinary, protowire.BytesType)
		b = protowire.AppendBytes(b, v.bin)
	}

	return b
}

func decodeBody(b []byte) (Kvpair, error) {
	var (
		pair    Kvpair
		kind    Kind
		payload Value
		seen    bool
	)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Kvpair{}, fmt.Errorf("failed to read field tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldKey && typ == protowire.BytesType:
			var key string
			key, n = protowire.ConsumeString(b)
			pair.Key = key
		case num == fieldKind && typ == protowire.VarintType:
			var raw uint64
			raw, n = protowire.ConsumeVarint(b)
			if n >= 0 && raw > uint64(KindBinary) {
				return Kvpair{}, fmt.Errorf("unknown value kind %d", raw)
			}
			kind = Kind(raw)
			seen = true
		case num == fieldInt && typ == protowire.VarintType:
			var raw uint64
			raw, n = protowire.ConsumeVarint(b)
			payload = IntValue(protowire.DecodeZigZag(raw))
		case num == fieldFloat && typ == protowire.Fixed64Type:
			var raw uint64
			raw, n = protowire.ConsumeFixed64(b)
			payload = FloatValue(math.Float64frombits(raw))
		case num == fieldString && typ == protowire.BytesType:
			var raw string
			raw, n = protowire.ConsumeString(b)
			payload = StringValue(raw)
		case num == fieldBool && typ == protowire.VarintType:
			var raw uint64
			raw, n = protowire.ConsumeVarint(b)
			payload = BoolValue(protowire.DecodeBool(raw))
		case num == fieldBinary && typ == protowire.BytesType:
			var raw []byte
			raw, n = protowire.ConsumeBytes(b)
			payload = BinaryValue(raw)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}

		if n < 0 {
			return Kvpair{}, fmt.Errorf("failed to read field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}

	if !seen {
		return Kvpair{}, errors.New("missing value kind")
	}

	switch {
	case kind == KindNull && payload.kind != KindNull:
		return Kvpair{}, fmt.Errorf("null value carries a %s payload", payload.kind)
	case kind == KindNull:
		pair.Value = Value{}
	case payload.kind != kind:
		return Kvpair{}, fmt.Errorf("value kind %s does not match payload kind %s", kind, payload.kind)
	default:
		pair.Value = payload
	}

	return pair, nil
}
