// Command filter-plot runs one recorded joint through each smoothing
// filter on its own and as the configured chain, and plots the result
// against the raw track.
//
// Usage:
//
//	filter-plot -input capture.jsonl -joint LeftHand -out plots/
//	filter-plot -db recordings.db -session <id> -joint RightFoot -axis y
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/avatar/l2smoothing"
	"github.com/banshee-data/posetrack/internal/avatar/storage/sqlite"
	"github.com/banshee-data/posetrack/internal/config"
	"github.com/banshee-data/posetrack/internal/geom"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("filter-plot: %v", err)
	}
}

// sample is one raw observation of the chosen joint.
type sample struct {
	t   float64 // seconds from the first frame
	pos geom.Vec3
}

// series is a filtered (or raw) track on one axis.
type series struct {
	name   string
	values []float64
	color  color.Color
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("filter-plot", flag.ContinueOnError)
	input := fs.String("input", "", "Keypoint JSONL file")
	dbPath := fs.String("db", "", "Recordings database (with -session)")
	session := fs.String("session", "", "Recording session ID")
	jointName := fs.String("joint", "LeftHand", "Joint to plot")
	axisName := fs.String("axis", "y", "Axis to plot: x, y or z")
	configPath := fs.String("config", "", "Tuning JSON (default: compiled-in defaults)")
	outDir := fs.String("out", ".", "Output directory for the PNG")
	if err := fs.Parse(args); err != nil {
		return err
	}

	joint, err := l1joints.ParseJointID(*jointName)
	if err != nil {
		return err
	}
	if !joint.IsSource() {
		return fmt.Errorf("%v is synthesized, not recorded", joint)
	}
	axis := strings.Index("xyz", strings.ToLower(*axisName))
	if len(*axisName) != 1 || axis < 0 {
		return fmt.Errorf("axis must be x, y or z, got %q", *axisName)
	}

	tuning := config.DefaultTuningConfig()
	if *configPath != "" {
		if tuning, err = config.LoadTuningConfig(*configPath); err != nil {
			return err
		}
	}
	cfg := l2smoothing.ConfigFromTuning(tuning)

	var samples []sample
	switch {
	case *input != "" && *session == "":
		samples, err = loadJSONL(*input, joint)
	case *input == "" && *session != "" && *dbPath != "":
		samples, err = loadSession(*dbPath, *session, joint)
	default:
		return fmt.Errorf("use either -input or -db with -session")
	}
	if err != nil {
		return err
	}
	if len(samples) < 3 {
		return fmt.Errorf("need at least 3 frames, got %d", len(samples))
	}

	filters := []struct {
		name  string
		f     l2smoothing.Filter
		color color.Color
	}{
		{"kalman", l2smoothing.NewKalmanFilter(cfg.Kalman), color.RGBA{R: 31, G: 119, B: 180, A: 255}},
		{"low-pass", l2smoothing.NewLowPass(cfg.LowPassOrder, cfg.LowPassSmooth), color.RGBA{R: 44, G: 160, B: 44, A: 255}},
		{"one-euro", l2smoothing.NewOneEuro(cfg.OneEuro, cfg.FrameRate), color.RGBA{R: 214, G: 39, B: 40, A: 255}},
		{"chain", l2smoothing.NewChain(cfg), color.RGBA{R: 148, G: 103, B: 189, A: 255}},
	}

	raw := series{name: "raw", values: make([]float64, len(samples)), color: color.Gray{Y: 128}}
	for i, s := range samples {
		raw.values[i] = s.pos[axis]
	}
	all := []series{raw}
	for _, flt := range filters {
		sr := series{name: flt.name, values: make([]float64, len(samples)), color: flt.color}
		prev := 0.0
		for i, s := range samples {
			dt := s.t - prev
			if i == 0 {
				dt = 0
			}
			sr.values[i] = flt.f.Apply(s.pos, dt)[axis]
			prev = s.t
		}
		all = append(all, sr)
	}

	fmt.Fprintf(out, "%-9s %10s %10s %10s\n", "series", "jitter", "rms_dev", "max_dev")
	for _, sr := range all {
		st := summarize(sr.values, raw.values)
		fmt.Fprintf(out, "%-9s %10.5f %10.5f %10.5f\n", sr.name, st.jitter, st.rmsDev, st.maxDev)
	}

	times := make([]float64, len(samples))
	for i, s := range samples {
		times[i] = s.t
	}
	name := fmt.Sprintf("%s_%s.png", joint, strings.ToLower(*axisName))
	path := filepath.Join(*outDir, name)
	if err := render(path, fmt.Sprintf("%v %s", joint, strings.ToUpper(*axisName)), times, all); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s\n", path)
	return nil
}

// stats compares a track with the raw input.
type stats struct {
	jitter float64 // std dev of the second difference
	rmsDev float64 // RMS distance from raw
	maxDev float64
}

func summarize(v, raw []float64) stats {
	var st stats
	if len(v) >= 3 {
		d2 := make([]float64, len(v)-2)
		for i := range d2 {
			d2[i] = v[i+2] - 2*v[i+1] + v[i]
		}
		st.jitter = stat.StdDev(d2, nil)
	}
	dev := make([]float64, len(v))
	floats.SubTo(dev, v, raw)
	st.rmsDev = floats.Norm(dev, 2) / math.Sqrt(float64(len(dev)))
	for i := range dev {
		if dev[i] < 0 {
			dev[i] = -dev[i]
		}
	}
	st.maxDev = floats.Max(dev)
	return st
}

func loadJSONL(path string, joint l1joints.JointID) ([]sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		out   []sample
		start time.Time
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var fr l1joints.Frame
		if err := json.Unmarshal(sc.Bytes(), &fr); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if int(joint) >= len(fr.Keypoints) {
			return nil, fmt.Errorf("line %d: no keypoint for %v", line, joint)
		}
		if start.IsZero() {
			start = fr.Timestamp
		}
		out = append(out, sample{t: fr.Timestamp.Sub(start).Seconds(), pos: fr.Keypoints[joint].Pos3D})
	}
	return out, sc.Err()
}

func loadSession(dbPath, id string, joint l1joints.JointID) ([]sample, error) {
	store, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	var (
		out   []sample
		start time.Time
	)
	err = store.EachFrame(context.Background(), id, func(rec sqlite.FrameRecord) error {
		if start.IsZero() {
			start = rec.Frame.Timestamp
		}
		out = append(out, sample{t: rec.Frame.Timestamp.Sub(start).Seconds(), pos: rec.Frame.Keypoints[joint].Pos3D})
		return nil
	})
	return out, err
}

func render(path, title string, times []float64, all []series) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Position"

	for _, sr := range all {
		pts := make(plotter.XYs, len(times))
		for i := range times {
			pts[i] = plotter.XY{X: times[i], Y: sr.values[i]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = sr.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(sr.name, line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(14*vg.Inch, 6*vg.Inch, path)
}
