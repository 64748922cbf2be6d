package frame

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// videoInfo holds stream metadata probed from a video file.
type videoInfo struct {
	width    int
	height   int
	fps      float64
	duration float64
}

// FFmpegSource decodes a video file into sequential grayscale frames by
// piping rawvideo output from the ffmpeg CLI. The stream is probed with
// ffprobe first to learn dimensions, frame rate and duration.
type FFmpegSource struct {
	info   videoInfo
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	buf    []byte
	index  int
	done   bool
}

// OpenFFmpegSource probes videoPath and starts a grayscale rawvideo decode.
// Empty tool paths default to "ffmpeg" and "ffprobe" resolved via PATH.
// Probe or startup failures wrap ErrSourceUnavailable.
func OpenFFmpegSource(ctx context.Context, ffmpegPath, ffprobePath, videoPath string) (*FFmpegSource, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	info, err := probeVideo(ctx, ffprobePath, videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-i", videoPath,
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"-vsync", "0",
		"-hide_banner",
		"-loglevel", "error",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	src := &FFmpegSource{
		info:   info,
		cmd:    cmd,
		stdout: stdout,
		buf:    make([]byte, info.width*info.height),
	}
	cmd.Stderr = &src.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	return src, nil
}

// FPS implements Source.FPS.
func (s *FFmpegSource) FPS() float64 {
	return s.info.fps
}

// Duration returns the video duration in seconds.
func (s *FFmpegSource) Duration() float64 {
	return s.info.duration
}

// Next reads the next full grayscale frame from the decode pipe.
func (s *FFmpegSource) Next() (Frame, bool, error) {
	if s.done {
		return Frame{}, false, nil
	}

	if _, err := io.ReadFull(s.stdout, s.buf); err != nil {
		s.done = true
		waitErr := s.cmd.Wait()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			if waitErr != nil {
				return Frame{}, false, fmt.Errorf("frame: ffmpeg decode failed: %w, stderr: %s", waitErr, s.stderr.String())
			}
			return Frame{}, false, nil
		}
		return Frame{}, false, fmt.Errorf("frame: read frame %d: %w", s.index, err)
	}

	img := image.NewGray(image.Rect(0, 0, s.info.width, s.info.height))
	copy(img.Pix, s.buf)

	f := Frame{
		Index:     s.index,
		Timestamp: float64(s.index) / s.info.fps,
		Gray:      img,
	}
	s.index++
	return f, true, nil
}

// Close stops the decode process. Safe to call after the stream is drained.
func (s *FFmpegSource) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	s.stdout.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	return nil
}

// probeVideo runs ffprobe and extracts the first video stream's dimensions,
// frame rate and the container duration.
func probeVideo(ctx context.Context, ffprobePath, videoPath string) (videoInfo, error) {
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1",
		videoPath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return videoInfo{}, fmt.Errorf("ffprobe: %w, stderr: %s", err, stderr.String())
	}

	return parseProbeOutput(stdout.String())
}

// parseProbeOutput parses "key=value" lines from ffprobe default output.
func parseProbeOutput(output string) (videoInfo, error) {
	var info videoInfo

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		key, value, found := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !found {
			continue
		}
		switch key {
		case "width":
			info.width, _ = strconv.Atoi(value)
		case "height":
			info.height, _ = strconv.Atoi(value)
		case "r_frame_rate":
			info.fps = parseRational(value)
		case "duration":
			info.duration, _ = strconv.ParseFloat(value, 64)
		}
	}

	if info.width <= 0 || info.height <= 0 {
		return videoInfo{}, fmt.Errorf("no video stream dimensions in probe output: %q", output)
	}
	if info.fps <= 0 {
		return videoInfo{}, fmt.Errorf("invalid frame rate in probe output: %q", output)
	}
	return info, nil
}

// parseRational converts ffprobe rational frame rates like "30000/1001".
func parseRational(value string) float64 {
	num, den, found := strings.Cut(value, "/")
	if !found {
		f, _ := strconv.ParseFloat(value, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// Verify interface implementation at compile time.
var _ Source = (*FFmpegSource)(nil)
