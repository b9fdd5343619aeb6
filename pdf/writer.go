package pdf

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// ErrOutputWrite marks irrecoverable I/O failures on the output stream.
var ErrOutputWrite = errors.New("unable to write output")

var header = []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

// Writer emits the PDF body sequentially and keeps the byte offset of every
// indirect object for the cross-reference table. It is single-writer: object
// numbers are handed out monotonically and the first I/O error sticks.
type Writer struct {
	w       *bufio.Writer
	written int64
	offsets map[int]int64
	next    int
	err     error
}

func NewWriter(out io.Writer) *Writer {
	w := &Writer{
		w:       bufio.NewWriter(out),
		offsets: make(map[int]int64),
		next:    1,
	}
	w.write(header)
	return w
}

// Alloc reserves the next object number. The object may be written later in
// any order relative to other allocations.
func (w *Writer) Alloc() Ref {
	r := Ref{Num: w.next}
	w.next++
	return r
}

// WriteObject writes one indirect object.
func (w *Writer) WriteObject(ref Ref, obj Object) {
	w.begin(ref)
	w.write([]byte(obj.String()))
	w.write([]byte("\nendobj\n"))
}

// WriteStream writes one stream object. The dictionary receives the Length
// entry; any filters must already be applied to data and named by the caller.
func (w *Writer) WriteStream(ref Ref, dict Dict, data []byte) {
	dict["Length"] = Number(len(data))
	w.begin(ref)
	w.write([]byte(dict.String()))
	w.write([]byte("\nstream\n"))
	w.write(data)
	w.write([]byte("\nendstream\nendobj\n"))
}

// Finish writes the cross-reference table and the trailer. The file
// identifier is a fresh random value on both slots.
func (w *Writer) Finish(root Ref) error {
	xrefStart := w.written
	fmt.Fprintf(w, "xref\n0 %d\n", w.next)
	fmt.Fprintf(w, "%010d %05d f \n", 0, 65535)
	for num := 1; num < w.next; num++ {
		fmt.Fprintf(w, "%010d %05d n \n", w.offsets[num], 0)
	}

	id := uuid.New()
	trailer := Dict{
		"Size": Number(w.next),
		"Root": root,
		"ID":   Array{HexStr(id[:]), HexStr(id[:])},
	}
	w.write([]byte("trailer\n"))
	w.write([]byte(trailer.String()))
	fmt.Fprintf(w, "\nstartxref\n%d\n%%%%EOF\n", xrefStart)

	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	return nil
}

func (w *Writer) begin(ref Ref) {
	w.offsets[ref.Num] = w.written
	fmt.Fprintf(w, "%d 0 obj\n", ref.Num)
}

// Write implements io.Writer over the buffered output, tracking offsets and
// latching the first error.
func (w *Writer) Write(p []byte) (int, error) {
	w.write(p)
	return len(p), nil
}

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.written += int64(n)
	if err != nil {
		w.err = fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
}
