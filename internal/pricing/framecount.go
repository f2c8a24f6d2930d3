package pricing

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFprobeCounter counts video frames by piping the raw bytes into ffprobe
// and parsing the single integer it prints. Any non-zero exit or
// unparseable output is a hard failure; the caller does not retry.
type FFprobeCounter struct {
	binary string
}

// NewFFprobeCounter creates a counter backed by the ffprobe binary on PATH.
func NewFFprobeCounter() *FFprobeCounter {
	return &FFprobeCounter{binary: "ffprobe"}
}

func (c *FFprobeCounter) CountFrames(ctx context.Context, data []byte) (int, error) {
	cmd := exec.CommandContext(ctx, c.binary,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_frames",
		"-show_entries", "stream=nb_read_frames",
		"-of", "csv=p=0",
		"-i", "pipe:0",
	)
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("run %s: %w: %s", c.binary, err, strings.TrimSpace(stderr.String()))
	}

	frames, err := strconv.Atoi(strings.TrimSpace(stdout.String()))
	if err != nil {
		return 0, fmt.Errorf("parse %s output %q: %w", c.binary, stdout.String(), err)
	}
	if frames < 0 {
		return 0, fmt.Errorf("%s reported negative frame count %d", c.binary, frames)
	}
	return frames, nil
}
