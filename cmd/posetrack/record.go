package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/avatar/l5retarget"
	"github.com/banshee-data/posetrack/internal/avatar/storage/sqlite"
	"github.com/google/uuid"
)

const importBatch = 256

func runImport(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	common := addCommonFlags(fs)
	note := fs.String("note", "", "Free-text note stored with the session")
	rigName := fs.String("rig-name", "", "Rig name recorded with the session (default: rig file name)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	common.apply()
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one JSONL file (or - for stdin), got %d", fs.NArg())
	}

	name := *rigName
	if name == "" {
		r, err := common.loadRig()
		if err != nil {
			return err
		}
		name = r.Name()
	}

	store, err := sqlite.Open(*common.db)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	id := uuid.NewString()
	var (
		batch   []sqlite.FrameRecord
		seq     uint64
		first   time.Time
		last    time.Time
		created bool
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store.InsertFrames(ctx, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	err = readFramesFile(fs.Arg(0), func(f l1joints.Frame) error {
		if !created {
			first = f.Timestamp
			if err := store.CreateSession(ctx, sqlite.Session{ID: id, RigName: name, Note: *note, StartedAt: first}); err != nil {
				return err
			}
			created = true
		}
		seq++
		last = f.Timestamp
		batch = append(batch, sqlite.FrameRecord{SessionID: id, Seq: seq, Frame: f})
		if len(batch) >= importBatch {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		if created {
			_ = store.DeleteSession(ctx, id)
		}
		return err
	}
	if !created {
		return fmt.Errorf("no frames in %s", fs.Arg(0))
	}
	if err := store.EndSession(ctx, id, last); err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %d frames as session %s (%s)\n", seq, id, last.Sub(first).Round(time.Millisecond))
	return nil
}

func runSessions(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	common := addCommonFlags(fs)
	del := fs.String("delete", "", "Delete the session with this ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	common.apply()

	store, err := sqlite.Open(*common.db)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := context.Background()

	if *del != "" {
		if err := store.DeleteSession(ctx, *del); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted session %s\n", *del)
		return nil
	}

	list, err := store.ListSessions(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tRIG\tSTARTED\tFRAMES\tNOTE")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.RigName, s.StartedAt.Format(time.RFC3339), s.FrameCount, s.Note)
	}
	return tw.Flush()
}

// runRest writes n rest-pose frames for the rig, handy as a known-good
// input when checking a new rig file.
func runRest(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("rest", flag.ContinueOnError)
	common := addCommonFlags(fs)
	n := fs.Int("n", 30, "Number of frames")
	rate := fs.Float64("rate", 30, "Frame rate in Hz")
	if err := fs.Parse(args); err != nil {
		return err
	}
	common.apply()
	if *n < 1 || *rate <= 0 {
		return fmt.Errorf("n and rate must be positive")
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
	cal, err := l5retarget.Calibrate(r, l5retarget.CalibrateOptions{
		Topology:  cfg.Topology,
		Synthesis: cfg.Synthesis,
		Retarget:  cfg.Retarget,
	})
	if err != nil {
		return err
	}

	start := time.Unix(0, 0).UTC()
	step := time.Duration(float64(time.Second) / *rate)
	for i := 0; i < *n; i++ {
		if err := writeFrame(out, cal.RestFrame(start.Add(time.Duration(i)*step))); err != nil {
			return err
		}
	}
	return nil
}
