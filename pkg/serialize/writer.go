// Package serialize implements the canonical deterministic byte encoding
// that feeds both the hash sponge and the wire for every domain type:
// fixed-width integers little-endian, variable-length integers as
// unsigned LEB128, sequences as a length prefix followed by elements,
// fixed arrays concatenated without a length, and sum types as a
// discriminant byte followed by payload.
//
// Any change to these rules is a hard fork: the bytes a Writer produces
// are exactly the bytes a matching Reader must reconstruct, and exactly
// the bytes fed into the hash sponge.
package serialize

// Writer accumulates the canonical encoding of a value.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// WriteByte appends a single byte.
func (w *Writer) WriteByte(b byte) {
	w.buf = append(w.buf, b)
}

// WriteBool appends a single byte: 1 for true, 0 for false.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

// WriteUint32 appends v as 4 little-endian bytes.
func (w *Writer) WriteUint32(v uint32) {
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// WriteUint64 appends v as 8 little-endian bytes.
func (w *Writer) WriteUint64(v uint64) {
	w.buf = append(w.buf,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// WriteVarint appends v as an unsigned LEB128 variable-length integer.
func (w *Writer) WriteVarint(v uint64) {
	for v >= 0x80 {
		w.buf = append(w.buf, byte(v)|0x80)
		v >>= 7
	}
	w.buf = append(w.buf, byte(v))
}

// WriteFixedBytes appends b verbatim, with no length prefix. Used for
// fixed-size arrays (hashes, keys, signatures).
func (w *Writer) WriteFixedBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteVarBytes appends a varint length prefix followed by b. Used for
// variable-length byte sequences.
func (w *Writer) WriteVarBytes(b []byte) {
	w.WriteVarint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteSeq writes a varint element count followed by calling enc for
// each element in order. Used for sequences of a Serializable type.
func WriteSeq[T any](w *Writer, items []T, enc func(*Writer, T)) {
	w.WriteVarint(uint64(len(items)))
	for _, item := range items {
		enc(w, item)
	}
}
