// Command posetrack records keypoint streams and replays them through the
// avatar pipeline, serving the monitor and telemetry stream while it runs.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/posetrack/internal/avatar/rig"
	"github.com/banshee-data/posetrack/internal/config"
	"github.com/banshee-data/posetrack/internal/monitoring"
	"github.com/banshee-data/posetrack/internal/version"
)

func main() {
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "import":
		err = runImport(args, os.Stdout)
	case "replay":
		err = runReplay(args, os.Stdout)
	case "sessions":
		err = runSessions(args, os.Stdout)
	case "rest":
		err = runRest(args, os.Stdout)
	case "version":
		fmt.Println(version.String())
	case "help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "posetrack %s: %v\n", command, err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `posetrack - drive a humanoid rig from 3D keypoint streams

Usage: posetrack <command> [options]

Commands:
  import     Store a keypoint JSONL file as a recording session
  replay     Run a recording or JSONL file through the pipeline
  sessions   List or delete recording sessions
  rest       Write rest-pose frames for a rig as JSONL
  version    Show version information
  help       Show this help message

Common Flags:
  -db <file>       Recordings database (default: recordings.db)
  -rig <file>      Rig YAML (default: built-in humanoid)
  -config <file>   Tuning JSON (default: compiled-in defaults)

Examples:
  posetrack rest -n 90 > rest.jsonl
  posetrack import -note "warm-up" capture.jsonl
  posetrack replay -session 6f1c7a52-... -listen :8080 -grpc localhost:50061 -realtime
  posetrack sessions -delete 6f1c7a52-...`)
}

// commonFlags are shared by the subcommands that touch rigs or tuning.
type commonFlags struct {
	db     *string
	rig    *string
	config *string
	debug  *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		db:     fs.String("db", "recordings.db", "Recordings database path"),
		rig:    fs.String("rig", "", "Rig YAML file (default: built-in humanoid)"),
		config: fs.String("config", "", "Tuning JSON file (default: compiled-in defaults)"),
		debug:  fs.Bool("debug", false, "Enable debug logging"),
	}
}

func (c commonFlags) apply() {
	monitoring.SetDebug(*c.debug)
}

func (c commonFlags) loadTuning() (*config.TuningConfig, error) {
	if *c.config == "" {
		return config.DefaultTuningConfig(), nil
	}
	return config.LoadTuningConfig(*c.config)
}

func (c commonFlags) loadRig() (*rig.Rig, error) {
	if *c.rig == "" {
		return rig.New(rig.DefaultHumanoid())
	}
	return rig.Load(*c.rig)
}
