package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
)

const maxFrameLine = 1 << 20

// readFrames decodes one l1joints.Frame per non-empty line and calls fn.
func readFrames(r io.Reader, fn func(l1joints.Frame) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxFrameLine)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var f l1joints.Frame
		if err := json.Unmarshal(sc.Bytes(), &f); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if len(f.Keypoints) < l1joints.SourceCount {
			return fmt.Errorf("line %d: %d keypoints, need %d", line, len(f.Keypoints), l1joints.SourceCount)
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return sc.Err()
}

func readFramesFile(path string, fn func(l1joints.Frame) error) error {
	if path == "-" {
		return readFrames(os.Stdin, fn)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return readFrames(f, fn)
}

func writeFrame(w io.Writer, f l1joints.Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
