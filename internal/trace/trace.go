// Package trace records the nodes a driver pushes and plays them back.
//
// A trace is a zstd compressed msgpack stream: one Header followed by one
// Record per node. Records hold the compact node encoding, so a trace of
// fast fills is much smaller than one of filtered blits.
package trace

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gogpu/bdisp/internal/node"
)

// Magic identifies a trace stream.
const Magic = "bdisp-trace"

// Version is the current stream version.
const Version = 1

// ErrFormat is returned for streams that are not traces of this version.
var ErrFormat = errors.New("trace: not a node trace")

// Pusher accepts nodes. *ring.Ring implements it.
type Pusher interface {
	Push(n *node.Node) error
}

// Header opens a trace.
type Header struct {
	Magic   string `msgpack:"magic"`
	Version int    `msgpack:"version"`
	Variant string `msgpack:"variant"`
	Device  uint32 `msgpack:"device"`
}

// Record is one pushed node.
type Record struct {
	Seq  uint64 `msgpack:"seq"`
	Node []byte `msgpack:"node"`
}

// Recorder writes every node it forwards to a trace.
type Recorder struct {
	next Pusher
	zw   *zstd.Encoder
	enc  *msgpack.Encoder
	buf  [node.Size]byte
	seq  uint64
	err  error
}

// NewRecorder starts a trace on w. Nodes pushed to the recorder are
// passed to next and recorded once next accepted them.
func NewRecorder(w io.Writer, next Pusher, h Header) (*Recorder, error) {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	r := &Recorder{next: next, zw: zw, enc: msgpack.NewEncoder(zw)}
	h.Magic, h.Version = Magic, Version
	if err := r.enc.Encode(&h); err != nil {
		zw.Close()
		return nil, fmt.Errorf("trace: header: %w", err)
	}
	return r, nil
}

// Push forwards n and records it. A recording failure is sticky and
// reported by Close; the node still reaches the engine.
func (r *Recorder) Push(n *node.Node) error {
	if err := r.next.Push(n); err != nil {
		return err
	}
	if r.err != nil {
		return nil
	}
	k, err := node.Encode(n, r.buf[:])
	if err == nil {
		err = r.enc.Encode(&Record{Seq: r.seq, Node: r.buf[:k]})
	}
	if err != nil {
		r.err = fmt.Errorf("trace: record %d: %w", r.seq, err)
	}
	r.seq++
	return nil
}

// Len returns the number of nodes pushed so far.
func (r *Recorder) Len() uint64 { return r.seq }

// Close flushes the trace. It does not close the underlying writer.
func (r *Recorder) Close() error {
	err := r.zw.Close()
	if r.err != nil {
		return r.err
	}
	if err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	return nil
}

// Reader reads a trace.
type Reader struct {
	zr  *zstd.Decoder
	dec *msgpack.Decoder
	h   Header
}

// NewReader reads the header of the trace on r.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	t := &Reader{zr: zr, dec: msgpack.NewDecoder(zr)}
	if err := t.dec.Decode(&t.h); err != nil {
		zr.Close()
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if t.h.Magic != Magic || t.h.Version != Version {
		zr.Close()
		return nil, fmt.Errorf("%w: magic %q version %d", ErrFormat, t.h.Magic, t.h.Version)
	}
	return t, nil
}

// Header returns the trace header.
func (t *Reader) Header() Header { return t.h }

// Next returns the next node. It returns io.EOF after the last one.
func (t *Reader) Next() (*node.Node, error) {
	var rec Record
	if err := t.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("trace: %w", err)
	}
	n, err := node.Decode(rec.Node)
	if err != nil {
		return nil, fmt.Errorf("trace: record %d: %w", rec.Seq, err)
	}
	return n, nil
}

// Close releases the decoder.
func (t *Reader) Close() { t.zr.Close() }

// Replay pushes every node of the trace on r to dst and returns how many
// were pushed.
func Replay(r io.Reader, dst Pusher) (int, error) {
	t, err := NewReader(r)
	if err != nil {
		return 0, err
	}
	defer t.Close()
	count := 0
	for {
		n, err := t.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		if err := dst.Push(n); err != nil {
			return count, fmt.Errorf("trace: replay node %d: %w", count, err)
		}
		count++
	}
}
