// Command shuffledemo starts one shuffler worker out of a fixed peer list,
// wires it to a synthetic generator source, and prints the shuffled output
// to stdout. It plays the role the teacher's cmd/mediaserver/cmd/main.go
// plays: load config, construct the domain objects, hand them to a
// run.Group, block until shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/oklog/run"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/flowshard/core/internal/config"
	"github.com/flowshard/core/internal/telemetry"
	"github.com/flowshard/core/pipe"
	"github.com/flowshard/core/shuffle"
)

func main() {
	cmd := &cli.Command{
		Name:  "shuffledemo",
		Usage: "run one worker of a distributed shuffle ring",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "self",
				Aliases:  []string{"s"},
				Usage:    "this worker's host:port, must appear in --workers",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "workers",
				Aliases:  []string{"w"},
				Usage:    "comma-separated host:port list of every worker in the ring",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "number of synthetic integers to generate and shuffle",
				Value: 1000,
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "shuffledemo:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := telemetry.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("loaded config", zap.Int("default_port", cfg.Port), zap.Int64("seed", cfg.Seed))

	self, err := shuffle.ParseHostPort(cmd.String("self"))
	if err != nil {
		return err
	}

	var workers []shuffle.HostPort
	for _, raw := range strings.Split(cmd.String("workers"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		hp, err := shuffle.ParseHostPort(raw)
		if err != nil {
			return err
		}
		workers = append(workers, hp)
	}

	count := int(cmd.Int("count"))

	shuf, err := shuffle.NewShuffler(shuffle.Config[[]byte]{
		Port:    self.Port,
		Self:    self,
		Workers: workers,
		Codec:   shuffle.IdentityCodec(),
		KeyExtractor: func(b []byte) []byte {
			return b
		},
		Logger: logger.With(zap.String("worker", self.String())),
	})
	if err != nil {
		return err
	}

	source := pipe.NewAsyncSeqGen(count, func(i int) []byte {
		return []byte(strconv.Itoa(i))
	}, 4)

	source.AddListener(pipe.ListenerFunc[[]byte](shuf.OnItem, shuf.OnDone, shuf.OnError))

	done := make(chan struct{})
	var g run.Group

	g.Add(func() error {
		shuf.AddListener(pipe.ListenerFunc[[]byte](
			func(v []byte) { fmt.Println(self.String(), string(v)) },
			func() { close(done) },
			func(err error) { logger.Error("shuffle failed", zap.Error(err)) },
		))
		if err := shuf.Start(); err != nil {
			return err
		}
		if err := source.Start(); err != nil {
			return err
		}
		<-done
		return nil
	}, func(error) {
		shuf.Close()
	})

	signalTrap := make(chan os.Signal, 1)
	signal.Notify(signalTrap, syscall.SIGINT, syscall.SIGTERM)
	g.Add(func() error {
		if sig, ok := <-signalTrap; ok {
			return errors.New(sig.String() + " signal")
		}
		return nil
	}, func(error) {
		signal.Stop(signalTrap)
		close(signalTrap)
	})

	return g.Run()
}
