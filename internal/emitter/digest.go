package emitter

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/zeebo/xxh3"

	"jsonrows/internal/value"
)

// appendCell writes a type-tagged, unambiguous encoding of cell to dst.
func appendCell(dst []byte, cell any) []byte {
	switch c := cell.(type) {
	case nil:
		return append(dst, 'n')
	case bool:
		if c {
			return append(dst, 'b', 1)
		}
		return append(dst, 'b', 0)
	case int64:
		dst = append(dst, 'i')
		return binary.BigEndian.AppendUint64(dst, uint64(c))
	case float64:
		dst = append(dst, 'f')
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(c))
	case string:
		dst = append(dst, 's')
		dst = binary.BigEndian.AppendUint64(dst, uint64(len(c)))
		return append(dst, c...)
	case time.Time:
		dst = append(dst, 't')
		dst = binary.BigEndian.AppendUint64(dst, uint64(c.Unix()))
		return binary.BigEndian.AppendUint32(dst, uint32(c.Nanosecond()))
	case value.Value:
		dst = append(dst, 'j')
		js := value.AppendJSON(nil, c)
		dst = binary.BigEndian.AppendUint64(dst, uint64(len(js)))
		return append(dst, js...)
	default:
		s := fmt.Sprintf("%T:%v", c, c)
		dst = append(dst, '?')
		dst = binary.BigEndian.AppendUint64(dst, uint64(len(s)))
		return append(dst, s...)
	}
}

// digest accumulates an order-sensitive hash of a row sequence.
type digest struct {
	h   *xxh3.Hasher
	buf []byte
}

func newDigest() *digest { return &digest{h: xxh3.New()} }

func (d *digest) add(row []any) {
	d.buf = append(d.buf[:0], 'r')
	d.buf = binary.BigEndian.AppendUint32(d.buf, uint32(len(row)))
	for _, cell := range row {
		d.buf = appendCell(d.buf, cell)
	}
	_, _ = d.h.Write(d.buf)
}

func (d *digest) sum() uint64 { return d.h.Sum64() }
