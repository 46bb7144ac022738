// Package driver runs the bulk-synchronous epoch loop from spec.md §4.7 on
// top of the transport, accum, reduce, and update packages: rank 0 drives
// the radius schedule and coordinates the cluster; workers map their
// assigned shards and gather their partial sums back.
package driver

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/pkuwalter/mr-mpi-som/internal/accum"
	"github.com/pkuwalter/mr-mpi-som/internal/matrix"
	"github.com/pkuwalter/mr-mpi-som/internal/reduce"
	"github.com/pkuwalter/mr-mpi-som/internal/shard"
	"github.com/pkuwalter/mr-mpi-som/internal/som"
	"github.com/pkuwalter/mr-mpi-som/internal/transport"
	"github.com/pkuwalter/mr-mpi-som/internal/update"
	"github.com/pkuwalter/mr-mpi-som/internal/vecops"
)

// Logger is the minimal logging surface the driver needs, satisfied by the
// stdlib *log.Logger the two binaries already build.
type Logger interface {
	Printf(format string, v ...any)
}

// ShardSet is one rank's assigned shard files, already resolved from the
// master file listing.
type ShardSet struct {
	Paths        []string
	NVecsPerFile int
	Ndimen       int
}

// Load reads every shard in s into dense matrices, failing fast on the
// first unreadable or short shard (spec.md §7).
func (s ShardSet) Load() ([]*matrix.Matrix, error) {
	mats := make([]*matrix.Matrix, len(s.Paths))
	for i, p := range s.Paths {
		m, err := shard.Load(p, s.NVecsPerFile, s.Ndimen)
		if err != nil {
			return nil, err
		}
		mats[i] = m
	}
	return mats, nil
}

// MapLocal runs the map body over every shard in mats concurrently and
// locally reduces the results, giving the caller one accumulator to send
// upstream (gather, for a worker; straight into the cluster-wide reduce,
// for rank 0's own shard set).
func MapLocal(ctx context.Context, mats []*matrix.Matrix, c *som.Codebook, r float64, norm vecops.NormalizeMode, shuffleSeed int64, shuffle bool) (*accum.Accumulator, error) {
	if len(mats) == 0 {
		return accum.New(c.SomY, c.SomX, c.Ndimen), nil
	}

	parts := make([]*accum.Accumulator, len(mats))
	g, _ := errgroup.WithContext(ctx)
	for i, m := range mats {
		i, m := i, m
		g.Go(func() error {
			opts := accum.Options{NormalizeMode: norm}
			if shuffle {
				opts.Shuffle = true
				opts.Rand = rand.New(rand.NewSource(shuffleSeed + int64(i)))
			}
			part, err := accum.Accumulate(m, c.Weights, c.SomY, c.SomX, c.Ndimen, r, opts)
			if err != nil {
				return err
			}
			parts[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reduce.Sum(parts)
}

// Plan is the fixed, cluster-wide training configuration every rank agrees
// on before the first epoch: grid shape, epoch budget, and map options.
type Plan struct {
	NEpochs       int
	SomY, SomX    int
	Ndimen        int
	NormalizeMode vecops.NormalizeMode
	Shuffle       bool
	ShuffleSeed   int64
}

// MasterRun drives the cluster side of the epoch loop: rank 0 owns the
// authoritative codebook, broadcasts (radius, codebook) each epoch, maps
// its own shard set locally in parallel with every worker mapping theirs,
// gathers and reduces the cluster's partial sums, applies the update, and
// repeats until som.Done. It returns the final codebook.
func MasterRun(ctx context.Context, log Logger, cl *transport.Cluster, plan Plan, localShards ShardSet, c *som.Codebook) (*som.Codebook, error) {
	localMats, err := localShards.Load()
	if err != nil {
		return nil, err
	}

	r0 := som.InitialRadius(plan.SomX)
	remaining := plan.NEpochs

	for epoch := 0; ; epoch++ {
		r := som.RadiusAt(r0, epoch, plan.NEpochs)
		if som.Done(remaining, r) {
			if err := cl.Broadcast(transport.EpochState{Done: true}); err != nil {
				return nil, errors.Wrap(err, "driver: broadcasting termination")
			}
			log.Printf("training complete after %d epochs (radius %.4f)", epoch, r)
			return c, nil
		}

		log.Printf("epoch %d: radius=%.4f remaining=%d", epoch, r, remaining)

		state := transport.EpochState{
			Epoch:    epoch,
			R:        r,
			SomY:     c.SomY,
			SomX:     c.SomX,
			Ndimen:   c.Ndimen,
			Codebook: c.Weights.Data(),
		}
		if err := cl.Broadcast(state); err != nil {
			return nil, errors.Wrap(err, "driver: broadcasting epoch state")
		}

		localAcc, err := MapLocal(ctx, localMats, c, r, plan.NormalizeMode, plan.ShuffleSeed, plan.Shuffle)
		if err != nil {
			return nil, errors.Wrap(err, "driver: mapping local shards")
		}

		payloads, err := cl.Gather()
		if err != nil {
			return nil, errors.Wrap(err, "driver: gathering worker accumulators")
		}

		parts := []*accum.Accumulator{localAcc}
		for _, p := range payloads {
			parts = append(parts, &accum.Accumulator{
				SomY: c.SomY, SomX: c.SomX, Ndimen: c.Ndimen,
				Numer: p.Numer, Denom: p.Denom,
			})
		}
		reduced, err := reduce.Sum(parts)
		if err != nil {
			return nil, errors.Wrap(err, "driver: reducing partial sums")
		}

		if err := update.Apply(c, reduced); err != nil {
			return nil, errors.Wrap(err, "driver: applying update")
		}

		remaining--
	}
}

// WorkerRun drives a non-rank-0 process: it receives each epoch's
// broadcast codebook and radius, maps its own shard set against it, and
// gathers its accumulator back to rank 0, stopping when rank 0 signals
// Done.
func WorkerRun(ctx context.Context, log Logger, link *transport.WorkerLink, plan Plan, localShards ShardSet) error {
	mats, err := localShards.Load()
	if err != nil {
		return err
	}

	for {
		state, err := link.RecvEpoch()
		if err != nil {
			return errors.Wrap(err, "driver: receiving epoch broadcast")
		}
		if state.Done {
			log.Printf("worker: training complete")
			return nil
		}

		c, err := som.FromData(state.SomY, state.SomX, state.Ndimen, state.Codebook)
		if err != nil {
			return errors.Wrap(err, "driver: reconstructing broadcast codebook")
		}

		acc, err := MapLocal(ctx, mats, c, state.R, plan.NormalizeMode, plan.ShuffleSeed, plan.Shuffle)
		if err != nil {
			return errors.Wrapf(err, "driver: mapping local shards at epoch %d", state.Epoch)
		}

		if err := link.SendAccum(transport.AccumPayload{Numer: acc.Numer, Denom: acc.Denom}); err != nil {
			return errors.Wrap(err, "driver: sending accumulator upstream")
		}
	}
}
