// Package codec moves float64 matrices across process boundaries as Arrow
// record batches and CBOR documents.
package codec

import (
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/longbow-linalg/internal/matrix"
)

// ErrInvalidRecord is returned when a record batch does not hold a matrix.
var ErrInvalidRecord = errors.New("codec: invalid matrix record")

// Schema is the layout of a matrix record batch: one list<float64> per
// matrix row. Every matrix uses the same schema so that several operands
// can travel in one stream. A batch without rows decodes as 0×0.
var Schema = arrow.NewSchema(
	[]arrow.Field{
		{Name: "row", Type: arrow.ListOf(arrow.PrimitiveTypes.Float64)},
	},
	nil,
)

// RecordBuilder creates Arrow record batches from matrices.
type RecordBuilder struct {
	mem memory.Allocator
}

// NewRecordBuilder creates a new builder. A nil allocator uses the Go allocator.
func NewRecordBuilder(mem memory.Allocator) *RecordBuilder {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &RecordBuilder{mem: mem}
}

// Build converts m into a record batch. The caller must Release it.
func (b *RecordBuilder) Build(m matrix.Matrix[float64]) arrow.RecordBatch {
	rows, cols := m.Rows(), m.Cols()

	listBuilder := array.NewListBuilder(b.mem, arrow.PrimitiveTypes.Float64)
	defer listBuilder.Release()
	valueBuilder := listBuilder.ValueBuilder().(*array.Float64Builder)
	valueBuilder.Reserve(rows * cols)

	d, dense := m.(*matrix.Dense[float64])
	for i := 0; i < rows; i++ {
		listBuilder.Append(true)
		if dense {
			valueBuilder.AppendValues(d.RawRow(i), nil)
			continue
		}
		for j := 0; j < cols; j++ {
			valueBuilder.Append(m.Get(i, j))
		}
	}

	col := listBuilder.NewArray()
	defer col.Release()
	return array.NewRecordBatch(Schema, []arrow.Array{col}, int64(rows))
}

// FromRecord copies a record batch built by Build back into a matrix.
func FromRecord(rec arrow.RecordBatch) (*matrix.Dense[float64], error) {
	if rec.NumCols() != 1 {
		return nil, fmt.Errorf("%w: %d columns", ErrInvalidRecord, rec.NumCols())
	}
	list, ok := rec.Column(0).(*array.List)
	if !ok {
		return nil, fmt.Errorf("%w: column type %s", ErrInvalidRecord, rec.Column(0).DataType())
	}
	values, ok := list.ListValues().(*array.Float64)
	if !ok {
		return nil, fmt.Errorf("%w: value type %s", ErrInvalidRecord, list.ListValues().DataType())
	}

	rows := list.Len()
	if rows == 0 {
		return matrix.Zeros[float64](0, 0), nil
	}
	raw := values.Float64Values()
	start, end := list.ValueOffsets(0)
	cols := int(end - start)
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		if list.IsNull(i) {
			return nil, fmt.Errorf("%w: row %d is null", ErrInvalidRecord, i)
		}
		start, end := list.ValueOffsets(i)
		if int(end-start) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrInvalidRecord, i, end-start, cols)
		}
		data = append(data, raw[start:end]...)
	}
	return matrix.NewFromSlice(rows, cols, data)
}

// WriteStream writes each matrix as one record batch of an Arrow IPC stream.
func WriteStream(w io.Writer, mem memory.Allocator, ms ...matrix.Matrix[float64]) error {
	b := NewRecordBuilder(mem)
	writer := ipc.NewWriter(w, ipc.WithSchema(Schema), ipc.WithAllocator(b.mem))
	for _, m := range ms {
		rec := b.Build(m)
		err := writer.Write(rec)
		rec.Release()
		if err != nil {
			_ = writer.Close()
			return err
		}
	}
	return writer.Close()
}

// ReadStream reads every record batch of an Arrow IPC stream as a matrix.
func ReadStream(r io.Reader, mem memory.Allocator) ([]*matrix.Dense[float64], error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	reader, err := ipc.NewReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, err
	}
	defer reader.Release()

	var out []*matrix.Dense[float64]
	for reader.Next() {
		m, err := FromRecord(reader.Record())
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return out, nil
}
