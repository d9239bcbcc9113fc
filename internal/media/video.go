package media

import (
	"bytes"
	"fmt"
	"image"
	"os/exec"
	"strings"

	"photofind/internal/logging"

	"github.com/disintegration/imaging"
)

// videoFrameBox is the bounding box frames are scaled into at extraction
// time. Small enough to keep ffmpeg cheap, large enough for both tiers'
// common scaling path to work with.
const videoFrameBox = 480

// extractVideoFrame grabs a single representative frame from a video.
// It tries one second in first (frame zero is often black), then falls back
// to the very start for clips shorter than that.
func extractVideoFrame(path string) (image.Image, error) {
	img, err := grabFrame(path, true)
	if err != nil {
		logging.Debug("Frame grab at 1s failed for %s, retrying at start: %v", path, err)
		img, err = grabFrame(path, false)
	}
	return img, err
}

func grabFrame(path string, seek bool) (image.Image, error) {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if seek {
		args = append(args, "-ss", "00:00:01")
	}
	args = append(args,
		"-i", path,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", videoFrameBox, videoFrameBox),
		"-f", "image2pipe",
		"-vcodec", "png",
		"-")

	cmd := exec.Command("ffmpeg", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame grab failed for %s: %w (%s)",
			path, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame for %s", path)
	}

	img, err := imaging.Decode(bytes.NewReader(stdout.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("decoding extracted frame: %w", err)
	}
	return img, nil
}
