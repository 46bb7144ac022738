// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package transport is the message-passing substrate: the bulk-synchronous
// barrier/broadcast/gather rank-0-coordinates-everyone protocol the epoch
// driver runs on top of. It plays the role the original C source gets for
// free from MPI and MR-MPI; here it is a small TCP + smux cluster, grounded
// in kcptun's client/server session model.
package transport

import (
	"net"
	"time"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/pkuwalter/mr-mpi-som/internal/config"
	"github.com/xtaci/smux"
)

// compStream wraps a net.Conn with snappy compression. Every broadcast
// carries the full codebook, so the epoch-to-epoch traffic is dominated by
// a single large, highly compressible payload.
type compStream struct {
	conn net.Conn
	w    *snappy.Writer
	r    *snappy.Reader
}

func (c *compStream) Read(p []byte) (n int, err error) {
	return c.r.Read(p)
}

func (c *compStream) Write(p []byte) (n int, err error) {
	if _, err := c.w.Write(p); err != nil {
		return 0, errors.WithStack(err)
	}
	if err := c.w.Flush(); err != nil {
		return 0, errors.WithStack(err)
	}
	return len(p), err
}

func (c *compStream) Close() error {
	return c.conn.Close()
}

func (c *compStream) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

func (c *compStream) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *compStream) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

func (c *compStream) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *compStream) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

// newCompStream wraps conn so every byte crossing it is snappy-compressed.
func newCompStream(conn net.Conn) *compStream {
	return &compStream{
		conn: conn,
		w:    snappy.NewBufferedWriter(conn),
		r:    snappy.NewReader(conn),
	}
}

// BuildSmuxConfig constructs a smux.Config from the cluster's own transport
// settings and verifies the result. Callers can log or wrap the returned
// error for better diagnostics.
func BuildSmuxConfig(tc config.Transport) (*smux.Config, error) {
	cfg := smux.DefaultConfig()
	cfg.Version = tc.SmuxVer
	cfg.MaxReceiveBuffer = tc.SmuxBuf
	cfg.MaxStreamBuffer = tc.StreamBuf
	cfg.MaxFrameSize = tc.FrameSize
	cfg.KeepAliveInterval = time.Duration(tc.KeepAlive) * time.Second

	return cfg, smux.VerifyConfig(cfg)
}

// Peer is rank 0's view of one connected worker: a single multiplexed
// stream doubling as the control and data channel for that worker across
// every epoch.
type Peer struct {
	session *smux.Session
	stream  *smux.Stream
	wire    *Wire
}

// Close tears down the peer's stream and session.
func (p *Peer) Close() error {
	if p.stream != nil {
		p.stream.Close()
	}
	return p.session.Close()
}

// Cluster is rank 0's handle on every connected worker. It holds only the
// worker peers; rank 0's own shards are mapped by the driver outside it.
type Cluster struct {
	Peers []*Peer
}

// Listen accepts exactly worldSize-1 worker connections on addr and returns
// the resulting Cluster. Accepting every worker before returning is the
// INIT -> TRAIN barrier (spec.md §4.8): no epoch starts until the whole
// cluster is present.
func Listen(addr string, worldSize int, cfg *smux.Config) (*Cluster, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "transport: listening on %q", addr)
	}
	defer ln.Close()

	cl := &Cluster{}
	for len(cl.Peers) < worldSize-1 {
		conn, err := ln.Accept()
		if err != nil {
			return nil, errors.Wrap(err, "transport: accepting worker connection")
		}
		comp := newCompStream(conn)
		session, err := smux.Server(comp, cfg)
		if err != nil {
			return nil, errors.Wrap(err, "transport: establishing smux session")
		}
		stream, err := session.AcceptStream()
		if err != nil {
			return nil, errors.Wrap(err, "transport: accepting worker stream")
		}
		cl.Peers = append(cl.Peers, &Peer{session: session, stream: stream, wire: NewWire(stream)})
	}
	return cl, nil
}

// AssignShards sends peer i its shard assignment, in peer connection
// order. len(assignments) must equal len(cl.Peers).
func (cl *Cluster) AssignShards(assignments []ShardAssignment) error {
	if len(assignments) != len(cl.Peers) {
		return errors.Errorf("transport: %d assignments for %d peers", len(assignments), len(cl.Peers))
	}
	for i, p := range cl.Peers {
		if err := p.wire.Send(assignments[i]); err != nil {
			return errors.Wrapf(err, "transport: assigning shards to peer %d", i)
		}
	}
	return nil
}

// Broadcast sends state to every peer concurrently.
func (cl *Cluster) Broadcast(state EpochState) error {
	errs := make(chan error, len(cl.Peers))
	for _, p := range cl.Peers {
		p := p
		go func() { errs <- p.wire.Send(state) }()
	}
	var firstErr error
	for range cl.Peers {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Gather blocks until every peer has sent its AccumPayload for the current
// epoch, returning them in peer order. This is simultaneously the gather
// step and the per-epoch barrier (spec.md §4.7 steps 6-8, 10): rank 0
// cannot proceed to update until every rank has replied.
func (cl *Cluster) Gather() ([]AccumPayload, error) {
	out := make([]AccumPayload, len(cl.Peers))
	errs := make(chan error, len(cl.Peers))
	for i, p := range cl.Peers {
		i, p := i, p
		go func() { errs <- p.wire.Recv(&out[i]) }()
	}
	var firstErr error
	for range cl.Peers {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// Close tears down every peer connection.
func (cl *Cluster) Close() error {
	var firstErr error
	for _, p := range cl.Peers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WorkerLink is a non-rank-0 process's single connection to rank 0.
type WorkerLink struct {
	session *smux.Session
	stream  *smux.Stream
	wire    *Wire
}

// Dial connects to the master at addr and opens the control/data stream.
func Dial(addr string, cfg *smux.Config) (*WorkerLink, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "transport: dialing master at %q", addr)
	}
	comp := newCompStream(conn)
	session, err := smux.Client(comp, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "transport: establishing smux session")
	}
	stream, err := session.OpenStream()
	if err != nil {
		return nil, errors.Wrap(err, "transport: opening worker stream")
	}
	return &WorkerLink{session: session, stream: stream, wire: NewWire(stream)}, nil
}

// RecvAssignment blocks for this worker's one-time shard assignment,
// which rank 0 sends once it has accepted every worker's stream.
func (w *WorkerLink) RecvAssignment() (ShardAssignment, error) {
	var a ShardAssignment
	if err := w.wire.Recv(&a); err != nil {
		return ShardAssignment{}, err
	}
	return a, nil
}

// RecvEpoch blocks for the next EpochState broadcast from rank 0.
func (w *WorkerLink) RecvEpoch() (EpochState, error) {
	var state EpochState
	if err := w.wire.Recv(&state); err != nil {
		return EpochState{}, err
	}
	return state, nil
}

// SendAccum gathers this worker's accumulator back to rank 0.
func (w *WorkerLink) SendAccum(payload AccumPayload) error {
	return w.wire.Send(payload)
}

// Close tears down the worker's connection to rank 0.
func (w *WorkerLink) Close() error {
	if w.stream != nil {
		w.stream.Close()
	}
	return w.session.Close()
}
