package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/avatar/l6footik"
	"github.com/banshee-data/posetrack/internal/avatar/monitor"
	"github.com/banshee-data/posetrack/internal/avatar/pipeline"
	"github.com/banshee-data/posetrack/internal/avatar/storage/sqlite"
	"github.com/banshee-data/posetrack/internal/avatar/telemetry"
	"github.com/banshee-data/posetrack/internal/config"
	"github.com/banshee-data/posetrack/internal/monitoring"
	"github.com/banshee-data/posetrack/internal/timeutil"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

var errStopped = errors.New("replay interrupted")

func pipelineConfig(t *config.TuningConfig) pipeline.Config {
	return pipeline.ConfigFromTuning(t)
}

func runReplay(args []string, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return replay(ctx, args, out, timeutil.RealClock{})
}

// replaySummary is printed when a replay finishes.
type replaySummary struct {
	Frames    int
	Rejected  int
	Valid     int
	Locked    int // frames with at least one locked joint
	PoorLower int
	Scores    []float64
}

func (s *replaySummary) add(res *pipeline.FrameResult) {
	s.Frames++
	if res.PoseValid {
		s.Valid++
	}
	if len(res.Locked()) > 0 {
		s.Locked++
	}
	if res.PoorLowerBody {
		s.PoorLower++
	}
	s.Scores = append(s.Scores, res.EstimatedScore)
}

func (s *replaySummary) print(w io.Writer) {
	mean, std := 0.0, 0.0
	if len(s.Scores) > 0 {
		mean, std = stat.MeanStdDev(s.Scores, nil)
	}
	fmt.Fprintf(w, "frames=%d rejected=%d pose_valid=%d locked=%d poor_lower_body=%d score=%.3f±%.3f\n",
		s.Frames, s.Rejected, s.Valid, s.Locked, s.PoorLower, mean, std)
}

func replay(ctx context.Context, args []string, out io.Writer, clock timeutil.Clock) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	common := addCommonFlags(fs)
	session := fs.String("session", "", "Recording session to replay")
	input := fs.String("input", "", "JSONL file to replay instead of a session (- for stdin)")
	listen := fs.String("listen", "", "Monitor HTTP address, e.g. :8080")
	grpcAddr := fs.String("grpc", "", "Telemetry gRPC address, e.g. localhost:50061")
	record := fs.Bool("record", false, "Record pipeline output as a new session")
	realtime := fs.Bool("realtime", false, "Pace frames by their timestamps")
	speed := fs.Float64("speed", 1, "Playback speed multiplier with -realtime")
	hold := fs.Bool("hold", false, "Keep serving after the last frame until interrupted")
	floor := fs.Float64("floor", 0, "Ground plane height for foot IK")
	noIK := fs.Bool("no-ik", false, "Disable foot IK")
	if err := fs.Parse(args); err != nil {
		return err
	}
	common.apply()
	if (*session == "") == (*input == "") {
		return fmt.Errorf("exactly one of -session or -input is required")
	}
	if *speed <= 0 {
		return fmt.Errorf("speed must be positive, got %v", *speed)
	}

	tuning, err := common.loadTuning()
	if err != nil {
		return err
	}
	r, err := common.loadRig()
	if err != nil {
		return err
	}
	cfg := pipelineConfig(tuning)
	if *noIK {
		cfg.FootIK.Enabled = false
	}

	history := monitor.NewHistory(tuning.GetHistorySize())
	p := pipeline.New(cfg, r, l6footik.PlaneGround{Height: *floor},
		pipeline.WithClock(clock),
		pipeline.WithSink(history),
	)
	if err := p.Calibrate(); err != nil {
		return err
	}

	var store *sqlite.Store
	if *session != "" || *record {
		if store, err = sqlite.Open(*common.db); err != nil {
			return err
		}
		defer store.Close()
	}
	if *record {
		rec := sqlite.NewRecorder(store, r.Name(), tuning.GetTelemetryBuffer())
		defer rec.Close()
		p.AddSink(rec)
	}

	var pub *telemetry.Publisher
	if *grpcAddr != "" {
		tcfg := telemetry.ConfigFromTuning(tuning)
		tcfg.ListenAddr = *grpcAddr
		pub = telemetry.NewPublisher(tcfg)
		if err := pub.Start(telemetry.NewServer(pub, p)); err != nil {
			return err
		}
		defer pub.Stop()
		p.AddSink(pub)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	if *listen != "" {
		ws := monitor.NewWebServer(monitor.WebServerConfig{
			Address:   *listen,
			Pipeline:  p,
			History:   history,
			Store:     store,
			Telemetry: pub,
		})
		g.Go(func() error { return ws.Start(gctx) })
	}

	var (
		sum  replaySummary
		prev time.Time
	)
	feed := func(f l1joints.Frame) error {
		if gctx.Err() != nil {
			return errStopped
		}
		if *realtime && !prev.IsZero() && f.Timestamp.After(prev) {
			clock.Sleep(time.Duration(float64(f.Timestamp.Sub(prev)) / *speed))
		}
		prev = f.Timestamp
		res, err := p.Process(f)
		if err != nil {
			sum.Rejected++
			monitoring.Logf("[replay] frame rejected: %v", err)
			return nil
		}
		sum.add(res)
		return nil
	}

	if *session != "" {
		err = store.EachFrame(ctx, *session, func(rec sqlite.FrameRecord) error { return feed(rec.Frame) })
	} else {
		err = readFramesFile(*input, feed)
	}
	if err != nil && !errors.Is(err, errStopped) {
		cancel()
		_ = g.Wait()
		return err
	}
	if sum.Frames+sum.Rejected == 0 && *session != "" {
		if _, gerr := store.GetSession(ctx, *session); gerr != nil {
			cancel()
			_ = g.Wait()
			return gerr
		}
	}
	sum.print(out)

	if *hold && gctx.Err() == nil {
		monitoring.Logf("[replay] finished; serving until interrupted")
		<-gctx.Done()
	}
	cancel()
	return g.Wait()
}
