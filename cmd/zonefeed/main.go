// Command zonefeed replays a file of zone readings over MQTT, as the zone
// controllers would publish them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/deng0529/GUItest-building-heating/internal/config"
	"github.com/deng0529/GUItest-building-heating/internal/ingest"
	"github.com/deng0529/GUItest-building-heating/internal/logging"
	"github.com/deng0529/GUItest-building-heating/internal/mqtt"
	"github.com/deng0529/GUItest-building-heating/internal/source/upload"
)

const appName = "zonefeed"

var version = "dev"

func main() {
	building := flag.String("building", "a", "building id used in the topic")
	perSecond := flag.Float64("rate", 10, "messages per second (0 for no limit)")
	burst := flag.Int("burst", 1, "maximum burst size")
	now := flag.Bool("now", false, "stamp readings with the current time instead of the file's")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg, version, appName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	readings, err := readFile(flag.Arg(0), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read: %v\n", err)
		os.Exit(1)
	}

	pub := mqtt.NewPublisher(mqtt.Options{
		Broker:   cfg.MQTTBroker,
		Port:     cfg.MQTTPort,
		ClientID: cfg.MQTTClientID + "-feed",
	}, logger)
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = pub.Connect(connectCtx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mqtt connect: %v\n", err)
		os.Exit(1)
	}
	defer pub.Disconnect()

	limit := rate.Limit(*perSecond)
	if *perSecond <= 0 {
		limit = rate.Inf
	}
	f := feeder{
		pub:      pub,
		limiter:  rate.NewLimiter(limit, max(*burst, 1)),
		building: *building,
		now:      *now,
		logger:   logger,
	}
	n, err := f.replay(ctx, readings)
	logger.Info("replay finished", "published", n, "total", len(readings))
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}
}

func readFile(path string, logger *slog.Logger) ([]ingest.ZoneTelemetry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := upload.Parse(path, f)
	if err != nil {
		return nil, err
	}
	readings, skipped, err := ingest.FromDataset(raw)
	if err != nil {
		return nil, err
	}
	for _, e := range skipped {
		logger.Warn("row skipped", "file", path, "error", e)
	}
	return readings, nil
}

type jsonPublisher interface {
	PublishJSON(ctx context.Context, topic string, v any) error
}

type feeder struct {
	pub      jsonPublisher
	limiter  *rate.Limiter
	building string
	now      bool
	logger   *slog.Logger
}

// replay publishes readings in order, paced by the limiter. It returns the
// number of published messages.
func (f *feeder) replay(ctx context.Context, readings []ingest.ZoneTelemetry) (int, error) {
	g, ctx := errgroup.WithContext(ctx)
	queue := make(chan ingest.ZoneTelemetry)

	g.Go(func() error {
		defer close(queue)
		for _, r := range readings {
			if f.now {
				r.SampleTime = time.Now().UTC()
			}
			select {
			case queue <- r:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	published := 0
	g.Go(func() error {
		for r := range queue {
			if err := f.limiter.Wait(ctx); err != nil {
				return err
			}
			topic := ingest.Topic(f.building, *r.ZoneID)
			if err := f.pub.PublishJSON(ctx, topic, r); err != nil {
				return fmt.Errorf("publish %s: %w", topic, err)
			}
			published++
		}
		return nil
	})

	err := g.Wait()
	return published, err
}
