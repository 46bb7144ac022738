package transport

import (
	"encoding/gob"
	"io"

	"github.com/pkg/errors"
)

// EpochState is what rank 0 broadcasts to every worker at the start of an
// epoch: the current neighborhood radius and the full codebook buffer
// (spec.md §4.7 steps 3-4).
type EpochState struct {
	Epoch              int
	R                  float64
	SomY, SomX, Ndimen int
	Codebook           []float64
	// Done tells the worker training has finished; Codebook and R are
	// unset on the final message.
	Done bool
}

// AccumPayload is what a worker gathers back to rank 0: its shard set's
// reduced numerator/denominator accumulator for the epoch (spec.md §4.4,
// §6 "Partial-sum wire format"). The textual "r,c,d"/"numer,denom" form
// from the source is preserved in internal/codec for round-trip testing;
// on the wire this binary form is used instead, which spec.md §6
// explicitly permits.
type AccumPayload struct {
	Numer, Denom []float64
}

// ShardAssignment is sent to a worker exactly once, after every worker's
// stream has been accepted: the shard files it owns for the whole run and the
// shard/vector shape every rank was started with. Splitting shard
// ownership this way, rather than baking it into the CLI contract (spec.md
// §6 fixes that to the five/seven positional training arguments), keeps
// "which files does rank N read" a cluster-bootstrap concern.
type ShardAssignment struct {
	Paths        []string
	NVecsPerFile int
	Ndimen       int
}

// Wire carries a persistent gob encoder/decoder pair bound to one stream.
// gob.Decoder buffers read-ahead internally, so a single Wire must be
// reused for every message exchanged on a given stream rather than
// constructing a fresh encoder/decoder per call, or buffered bytes from
// one message would be silently dropped when decoding the next.
type Wire struct {
	enc *gob.Encoder
	dec *gob.Decoder
}

// NewWire binds a Wire to rw, a duplex stream such as a smux.Stream.
func NewWire(rw io.ReadWriter) *Wire {
	return &Wire{enc: gob.NewEncoder(rw), dec: gob.NewDecoder(rw)}
}

// Send gob-encodes v onto the wire.
func (w *Wire) Send(v any) error {
	return errors.WithStack(w.enc.Encode(v))
}

// Recv decodes the next gob value from the wire into v.
func (w *Wire) Recv(v any) error {
	return errors.WithStack(w.dec.Decode(v))
}
