// Command mrsom-master is rank 0 of a mr-mpi-som cluster: it owns the
// authoritative codebook, accepts every worker connection, drives the
// bulk-synchronous epoch loop, and writes the two result artifacts once
// training terminates.
package main

import (
	"context"
	"io"
	"log"
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/pkuwalter/mr-mpi-som/internal/config"
	"github.com/pkuwalter/mr-mpi-som/internal/driver"
	"github.com/pkuwalter/mr-mpi-som/internal/shard"
	"github.com/pkuwalter/mr-mpi-som/internal/som"
	"github.com/pkuwalter/mr-mpi-som/internal/transport"
	"github.com/pkuwalter/mr-mpi-som/internal/umat"
	"github.com/pkuwalter/mr-mpi-som/internal/vecops"
)

// VERSION is injected by buildflags.
var VERSION = "SELFBUILD"

const usage = `usage: mrsom-master master_file NEPOCHS TRAINMODE NVECSPERFILE NDIMEN [SOM_X SOM_Y]

  master_file    path to the file listing one shard path per line
  NEPOCHS        total epoch budget
  TRAINMODE      0 = batch, 1 = online (unimplemented)
  NVECSPERFILE   feature vectors per shard file
  NDIMEN         feature vector dimensionality
  SOM_X, SOM_Y   grid shape (default 50x50)
`

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	app := cli.NewApp()
	app.Name = "mrsom-master"
	app.Usage = "distributed SOM trainer, rank 0"
	app.Version = VERSION
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "listen", Value: ":29900", Usage: "address to accept worker connections on", EnvVar: "MRSOM_LISTEN"},
		cli.IntFlag{Name: "worldsize", Value: 1, Usage: "total rank count, including this master", EnvVar: "MRSOM_WORLD_SIZE"},
		cli.IntFlag{Name: "smuxver", Value: 2, Usage: "smux protocol version"},
		cli.IntFlag{Name: "smuxbuf", Value: 4194304, Usage: "overall demux buffer in bytes"},
		cli.IntFlag{Name: "streambuf", Value: 2097152, Usage: "per-stream receive buffer in bytes"},
		cli.IntFlag{Name: "framesize", Value: 8192, Usage: "smux max frame size"},
		cli.IntFlag{Name: "keepalive", Value: 10, Usage: "seconds between smux heartbeats"},
		cli.StringFlag{Name: "log", Value: "", Usage: "log file to append to, default stderr"},
		cli.BoolFlag{Name: "quiet", Usage: "suppress per-epoch progress logging"},
		cli.Int64Flag{Name: "seed", Value: 1, Usage: "codebook and shuffle RNG seed"},
		cli.StringFlag{Name: "c", Value: "", Usage: "override transport settings from a JSON file"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		if config.IsUsageError(err) {
			os.Stdout.WriteString(usage)
			os.Exit(0)
		}
		log.Fatalf("%+v", err)
	}
}

func run(c *cli.Context) error {
	training, err := config.ParseArgs([]string(c.Args()))
	if err != nil {
		return err
	}

	tc := config.Transport{
		Listen:    c.String("listen"),
		WorldSize: c.Int("worldsize"),
		SmuxVer:   c.Int("smuxver"),
		SmuxBuf:   c.Int("smuxbuf"),
		StreamBuf: c.Int("streambuf"),
		FrameSize: c.Int("framesize"),
		KeepAlive: c.Int("keepalive"),
		Log:       c.String("log"),
		Quiet:     c.Bool("quiet"),
	}
	if path := c.String("c"); path != "" {
		if err := config.ParseJSONOverride(&tc, path); err != nil {
			return err
		}
	}
	if tc.Log != "" {
		f, err := os.OpenFile(tc.Log, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return errors.WithStack(err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	log.Println("version:", VERSION)
	log.Println("master file:", training.MasterFile)
	log.Println("nepochs:", training.NEpochs)
	log.Println("train mode:", training.TrainMode)
	log.Println("nvecsperfile:", training.NVecsPerFile)
	log.Println("ndimen:", training.Ndimen)
	log.Println("som grid:", training.SomX, "x", training.SomY)
	log.Println("listening on:", tc.Listen)
	log.Println("world size:", tc.WorldSize)

	if training.TrainMode != config.Batch {
		return errors.New("mrsom-master: online training mode is not implemented")
	}

	paths, err := shard.ReadMasterFile(training.MasterFile)
	if err != nil {
		return err
	}
	buckets := splitRoundRobin(paths, tc.WorldSize)

	smuxCfg, err := transport.BuildSmuxConfig(tc)
	if err != nil {
		return errors.Wrap(err, "mrsom-master: building smux config")
	}

	var cl *transport.Cluster
	if tc.WorldSize > 1 {
		log.Println("waiting for", tc.WorldSize-1, "workers to connect")
		cl, err = transport.Listen(tc.Listen, tc.WorldSize, smuxCfg)
		if err != nil {
			return err
		}
		defer cl.Close()
		log.Println("cluster assembled")

		assignments := make([]transport.ShardAssignment, len(cl.Peers))
		for i := range cl.Peers {
			assignments[i] = transport.ShardAssignment{
				Paths:        buckets[i+1],
				NVecsPerFile: training.NVecsPerFile,
				Ndimen:       training.Ndimen,
			}
		}
		if err := cl.AssignShards(assignments); err != nil {
			return err
		}
	} else {
		cl = &transport.Cluster{}
	}

	codebook, err := som.New(training.SomY, training.SomX, training.Ndimen)
	if err != nil {
		return err
	}
	codebook.RandomizeInPlace(rand.New(rand.NewSource(c.Int64("seed"))))

	plan := driver.Plan{
		NEpochs:       training.NEpochs,
		SomY:          training.SomY,
		SomX:          training.SomX,
		Ndimen:        training.Ndimen,
		NormalizeMode: vecops.NormNone,
		ShuffleSeed:   c.Int64("seed"),
	}
	localShards := driver.ShardSet{
		Paths:        buckets[0],
		NVecsPerFile: training.NVecsPerFile,
		Ndimen:       training.Ndimen,
	}

	var progress driver.Logger = log.Default()
	if tc.Quiet {
		progress = log.New(io.Discard, "", 0)
	}
	final, err := driver.MasterRun(context.Background(), progress, cl, plan, localShards, codebook)
	if err != nil {
		return err
	}

	u, err := umat.Compute(final)
	if err != nil {
		return err
	}
	if err := writeFile("result.umat.txt", func(w *os.File) error { return umat.WriteUMatrix(w, u) }); err != nil {
		return err
	}
	if err := writeFile("result.map.txt", func(w *os.File) error { return umat.WriteMap(w, final) }); err != nil {
		return err
	}

	log.Println("wrote result.umat.txt and result.map.txt")
	return nil
}

// splitRoundRobin partitions paths into worldSize buckets, assigning
// paths[i] to bucket i%worldSize, so every rank's share differs by at most
// one shard file.
func splitRoundRobin(paths []string, worldSize int) [][]string {
	if worldSize < 1 {
		worldSize = 1
	}
	buckets := make([][]string, worldSize)
	for i, p := range paths {
		b := i % worldSize
		buckets[b] = append(buckets[b], p)
	}
	return buckets
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "mrsom-master: creating %q", path)
	}
	defer f.Close()
	return write(f)
}
