package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.viam.com/simrecord/config"
	"go.viam.com/simrecord/logging"
	"go.viam.com/simrecord/recorder"
	"go.viam.com/simrecord/recording"
	"go.viam.com/simrecord/recording/badgerstore"
	"go.viam.com/simrecord/recording/memory"
	"go.viam.com/simrecord/recording/redisstream"
	"go.viam.com/simrecord/recording/wsstream"
	"go.viam.com/simrecord/sim"
	"go.viam.com/simrecord/sim/kinematic"
	"go.viam.com/simrecord/utils"
)

func runAction(c *cli.Context, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Read(ctx, c.String(flagConfig), logger)
	if err != nil {
		return err
	}
	if !c.Bool(flagDebug) {
		logger.SetLevel(cfg.LogLevel)
	}
	if path := c.String(flagLogFile); path != "" {
		cfg.LogFile = &config.LogFile{Path: path}
	}
	if cfg.LogFile != nil {
		appender, closer := logging.NewFileAppender(cfg.LogFile.AppenderConfig())
		defer closer.Close()
		logger.AddAppender(appender)
	}
	if c.Bool(flagTrace) {
		var id string
		ctx, id = logging.EnableDebugMode(ctx)
		logger.Infow("frame tracing enabled", "debug_id", id)
	}
	if steps := c.Int64(flagSteps); steps >= 0 {
		cfg.Simulation.Steps = steps
	}
	return runSession(ctx, cfg, logger, c.App.Writer)
}

// runSession records every robot of cfg until the step budget is spent, a step fails or ctx is
// cancelled. A per-robot frame count is written to out.
func runSession(ctx context.Context, cfg *config.Config, logger logging.Logger, out io.Writer) (err error) {
	sinks, err := openSinks(ctx, cfg.Sinks, logger)
	if err != nil {
		return err
	}
	host, err := recorder.NewHost(ctx, cfg.Session, logger.Sublogger("recorder"), sinks...)
	if err != nil {
		return multierr.Combine(err, closeSinks(sinks))
	}
	defer func() {
		err = multierr.Combine(err, host.Close(context.Background()))
	}()
	for _, p := range cfg.SearchPaths {
		host.AddSearchPath(p)
	}

	physics := kinematic.NewHost(kinematic.Config{
		TimeStep: cfg.Simulation.TimeStepDuration(),
		Kp:       cfg.Simulation.Kp,
		Kd:       cfg.Simulation.Kd,
	}, logger.Sublogger("kinematic"))
	motion := kinematic.SinusoidMotion(cfg.Simulation.Amplitude, cfg.Simulation.MotionCycleDuration())

	built := make([]*recorder.Robot, 0, len(cfg.Robots))
	for _, rc := range cfg.Robots {
		scaling := rc.Scaling
		if scaling == 0 {
			scaling = 1
		}
		builder := host.BeginRobot(rc.RobotType(), rc.Name).
			Base(rc.Base.Pose()).
			BaseFixed(rc.BaseFixed).
			Scaling(scaling).
			LinkVelocityChannels(rc.LinkVelocityChannels)
		if rc.MeshPath != "" {
			builder.MeshPath(rc.MeshPath)
		}
		robot, err := builder.Load(ctx)
		if err != nil {
			return err
		}
		body, err := physics.LoadBody(robot.Description(), kinematic.BodyOptions{
			Base:   rc.Base.Pose(),
			Motion: motion,
		})
		if err != nil {
			return err
		}
		if err := robot.AttachTo(ctx, body); err != nil {
			return err
		}
		built = append(built, robot)
		logger.Infow("recording robot", "robot", rc.Name, "description", robot.Description().File(), "prefix", robot.Prefix())
	}

	var period time.Duration
	if cfg.Simulation.Realtime {
		period = cfg.Simulation.TimeStepDuration()
	}
	loop := sim.NewLoop(physics, period, cfg.Simulation.Steps, logger.Sublogger("loop"))

	g, gctx := errgroup.WithContext(ctx)
	loop.Start(gctx)
	g.Go(func() error {
		return loop.Wait(context.Background())
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			loop.Stop()
		case <-loop.Done():
		}
		return nil
	})
	err = g.Wait()
	loop.Stop()

	for _, r := range built {
		fmt.Fprintf(out, "%s\t%d frames\n", r.Name(), r.Frame())
	}
	logger.Infow("simulation stopped", "steps", loop.Steps(), "elapsed", physics.Elapsed())
	if err != nil {
		return errors.Wrap(err, "simulation failed")
	}
	return nil
}

func openSinks(ctx context.Context, cfgs []config.Sink, logger logging.Logger) ([]recording.Sink, error) {
	sinks := make([]recording.Sink, 0, len(cfgs))
	guard := utils.NewGuard(func() {
		if err := closeSinks(sinks); err != nil {
			logger.Warnw("failed to close sinks", "error", err)
		}
	})
	defer guard.OnFail()

	for _, sc := range cfgs {
		sink, err := openSink(ctx, sc, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s sink", sc.Type)
		}
		sinks = append(sinks, sink)
	}
	guard.Success()
	return sinks, nil
}

func openSink(ctx context.Context, sc config.Sink, logger logging.Logger) (recording.Sink, error) {
	switch sc.Type {
	case config.SinkMemory:
		return memory.NewStore(), nil
	case config.SinkBadger:
		attrs, err := utils.AssertType[*badgerstore.Config](sc.ConvertedAttributes)
		if err != nil {
			return nil, err
		}
		return badgerstore.Open(*attrs, logger.Sublogger("badger"))
	case config.SinkWebsocket:
		attrs, err := utils.AssertType[*wsstream.Config](sc.ConvertedAttributes)
		if err != nil {
			return nil, err
		}
		server := wsstream.NewServer(*attrs, logger.Sublogger("wsstream"))
		if err := server.Start(ctx); err != nil {
			return nil, multierr.Combine(err, server.Close())
		}
		return server, nil
	case config.SinkRedis:
		attrs, err := utils.AssertType[*redisstream.Config](sc.ConvertedAttributes)
		if err != nil {
			return nil, err
		}
		return redisstream.Open(ctx, *attrs)
	default:
		return nil, errors.Errorf("unknown sink type %q", sc.Type)
	}
}

func closeSinks(sinks []recording.Sink) error {
	var errs error
	for _, s := range sinks {
		errs = multierr.Combine(errs, s.Close())
	}
	return errs
}
