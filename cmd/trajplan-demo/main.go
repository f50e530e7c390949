// Command trajplan-demo drives a Planner through a small toolpath (two
// collinear lines, a right-angle turn, and a quadrant arc), logs every
// segment the dispatcher emits (at debug level, shown with -v), and prints
// a metrics summary, to exercise the whole producer/dispatcher
// pipeline end to end without any real motor hardware attached.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/cncgo/trajplan"
	"github.com/cncgo/trajplan/internal/logging"
)

func main() {
	var (
		feedRate = flag.Float64("feed", 3000, "requested feed rate, mm/min")
		axes     = flag.Int("axes", 3, "configured axis count")
		verbose  = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	cfg := trajplan.DefaultConfig(*axes)
	cfg.Logger = logger
	metrics := trajplan.NewMetrics()
	cfg.Observer = trajplan.NewMetricsObserver(metrics)

	kin := &consoleKinematics{}
	motor := &consoleMotorQueue{logger: logger}
	planner := trajplan.NewPlanner(cfg, kin, motor)
	planner.SetStepper(&consoleStepper{logger: logger})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	if err := runDemo(ctx, planner, *feedRate); err != nil && err != context.Canceled {
		logger.Error("trajplan-demo failed", "error", err)
		os.Exit(1)
	}

	snap := metrics.Snapshot()
	fmt.Printf("lines queued: %d, arcs queued: %d, segments run: %d\n",
		snap.LinesQueued, snap.ArcsQueued, snap.SegmentsRun)
}

// runDemo drives the whole toolpath producer and the dispatcher on this one
// goroutine, call by call: a producer never overlaps a dispatcher step, the
// same single-threaded cooperative model the Planner itself assumes (the
// ring pool's cursors and the master/run position state carry no locking of
// their own). Backpressure and draining both work by pumping MoveDispatcher
// inline rather than sleeping a second goroutine against a busy queue.
func runDemo(ctx context.Context, p *trajplan.Planner, feedRate float64) error {
	minutes := func(length float64) float64 { return length / feedRate }

	waitForRoom := func(n int) error {
		for !p.CheckWriteBuffers(n) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if _, err := p.MoveDispatcher(); err != nil {
				return err
			}
		}
		return nil
	}

	moves := []struct {
		target []float64
		length float64
	}{
		{[]float64{100, 0, 0}, 100},
		{[]float64{250, 0, 0}, 150},
		{[]float64{250, 150, 0}, 150},
	}

	for _, m := range moves {
		if err := waitForRoom(3); err != nil {
			return err
		}
		status, err := p.Aline(m.target, minutes(m.length))
		if err != nil {
			return err
		}
		if status == trajplan.StatusBufferFullFatal {
			return fmt.Errorf("buffer pool exhausted queuing %v", m.target)
		}
	}

	if err := waitForRoom(1); err != nil {
		return err
	}
	radius := 50.0
	arcTarget := []float64{250 + radius, 150 + radius, 0}
	status, err := p.Arc(arcTarget, 0, radius, math.Pi/2, 0, 0, 1, 2, minutes(radius*math.Pi/2))
	if err != nil {
		return err
	}
	if status == trajplan.StatusBufferFullFatal {
		return fmt.Errorf("buffer pool exhausted queuing arc")
	}

	if err := waitForRoom(1); err != nil {
		return err
	}
	if _, err := p.QueuedEnd(); err != nil {
		return err
	}

	return drainDispatcher(ctx, p)
}

// drainDispatcher polls MoveDispatcher cooperatively until the queue is
// fully drained (StatusNOOP seen repeatedly with nothing running) or the
// context is canceled.
func drainDispatcher(ctx context.Context, p *trajplan.Planner) error {
	idle := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		status, err := p.MoveDispatcher()
		if err != nil {
			return err
		}

		switch status {
		case trajplan.StatusNOOP:
			idle++
			if idle > 3 && !p.IsBusy() {
				return nil
			}
		case trajplan.StatusEAGAIN:
			idle = 0
		default:
			idle = 0
		}
	}
}

// consoleKinematics is an identity inverse-kinematics stand-in: one step
// per whole mm of travel, truncated toward zero.
type consoleKinematics struct{}

func (consoleKinematics) Convert(travel []float64, microseconds int64) []int64 {
	steps := make([]int64, len(travel))
	for i, t := range travel {
		steps[i] = int64(t)
	}
	return steps
}

// consoleMotorQueue logs every enqueued segment instead of driving real
// stepper hardware, and always reports room available.
type consoleMotorQueue struct {
	mu     sync.Mutex
	logger trajplan.Logger
	n      int
}

func (c *consoleMotorQueue) TestMotorBuffer() bool { return true }

func (c *consoleMotorQueue) QueueLine(steps []int64, microseconds int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	c.logger.Debug("segment", "n", c.n, "steps", steps, "us", microseconds)
	return nil
}

func (c *consoleMotorQueue) QueueDwell(microseconds int64) error {
	c.logger.Info("dwell", "us", microseconds)
	return nil
}

func (c *consoleMotorQueue) QueueControl(ctrl trajplan.MoveControl) error {
	c.logger.Info("control", "directive", ctrl)
	return nil
}

// consoleStepper logs stop/start/reinit instead of touching hardware.
type consoleStepper struct {
	logger trajplan.Logger
	busy   bool
}

func (c *consoleStepper) Start() { c.busy = true; c.logger.Info("stepper start") }
func (c *consoleStepper) Stop()  { c.busy = false; c.logger.Info("stepper stop") }
func (c *consoleStepper) IsBusy() bool { return c.busy }
func (c *consoleStepper) Reinit() {
	c.busy = false
	c.logger.Info("stepper reinit")
}
