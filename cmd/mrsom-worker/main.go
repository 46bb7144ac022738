// Command mrsom-worker is a non-rank-0 process in a mr-mpi-som cluster: it
// dials the master, receives its shard assignment once, then maps its
// shards against the broadcast codebook every epoch until the master
// signals training is done.
package main

import (
	"context"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/pkuwalter/mr-mpi-som/internal/config"
	"github.com/pkuwalter/mr-mpi-som/internal/driver"
	"github.com/pkuwalter/mr-mpi-som/internal/transport"
	"github.com/pkuwalter/mr-mpi-som/internal/vecops"
)

// VERSION is injected by buildflags.
var VERSION = "SELFBUILD"

const usage = `usage: mrsom-worker master_file NEPOCHS TRAINMODE NVECSPERFILE NDIMEN [SOM_X SOM_Y]

Arguments must match the master's exactly; the worker rejects any TRAINMODE
other than 0 and checks NVECSPERFILE and NDIMEN against its shard assignment.
`

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	app := cli.NewApp()
	app.Name = "mrsom-worker"
	app.Usage = "distributed SOM trainer, worker rank"
	app.Version = VERSION
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "masteraddr", Value: "127.0.0.1:29900", Usage: "rank 0 address to dial", EnvVar: "MRSOM_MASTER_ADDR"},
		cli.IntFlag{Name: "smuxver", Value: 2, Usage: "smux protocol version"},
		cli.IntFlag{Name: "smuxbuf", Value: 4194304, Usage: "overall demux buffer in bytes"},
		cli.IntFlag{Name: "streambuf", Value: 2097152, Usage: "per-stream receive buffer in bytes"},
		cli.IntFlag{Name: "framesize", Value: 8192, Usage: "smux max frame size"},
		cli.IntFlag{Name: "keepalive", Value: 10, Usage: "seconds between smux heartbeats"},
		cli.StringFlag{Name: "log", Value: "", Usage: "log file to append to, default stderr"},
		cli.Int64Flag{Name: "seed", Value: 1, Usage: "shuffle RNG seed"},
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
	if training.TrainMode != config.Batch {
		return errors.New("mrsom-worker: online training mode is not implemented")
	}

	tc := config.Transport{
		MasterAddr: c.String("masteraddr"),
		SmuxVer:    c.Int("smuxver"),
		SmuxBuf:    c.Int("smuxbuf"),
		StreamBuf:  c.Int("streambuf"),
		FrameSize:  c.Int("framesize"),
		KeepAlive:  c.Int("keepalive"),
		Log:        c.String("log"),
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
	log.Println("master address:", tc.MasterAddr)

	smuxCfg, err := transport.BuildSmuxConfig(tc)
	if err != nil {
		return errors.Wrap(err, "mrsom-worker: building smux config")
	}

	link, err := transport.Dial(tc.MasterAddr, smuxCfg)
	if err != nil {
		return err
	}
	defer link.Close()
	log.Println("connected to master")

	assignment, err := link.RecvAssignment()
	if err != nil {
		return errors.Wrap(err, "mrsom-worker: receiving shard assignment")
	}
	if assignment.NVecsPerFile != training.NVecsPerFile || assignment.Ndimen != training.Ndimen {
		return errors.Errorf("mrsom-worker: assignment shape %d/%d disagrees with local args %d/%d",
			assignment.NVecsPerFile, assignment.Ndimen, training.NVecsPerFile, training.Ndimen)
	}
	log.Println("assigned", len(assignment.Paths), "shard files")

	plan := driver.Plan{
		NEpochs:       training.NEpochs,
		SomY:          training.SomY,
		SomX:          training.SomX,
		Ndimen:        training.Ndimen,
		NormalizeMode: vecops.NormNone,
		ShuffleSeed:   c.Int64("seed"),
	}
	localShards := driver.ShardSet{
		Paths:        assignment.Paths,
		NVecsPerFile: assignment.NVecsPerFile,
		Ndimen:       assignment.Ndimen,
	}

	return driver.WorkerRun(context.Background(), log.Default(), link, plan, localShards)
}
