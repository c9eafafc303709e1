package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/talentscoutke/talentscout-backend/internal/logger"
)

// MediaToolsService shells out to ffprobe for the metadata the blob store
// cannot supply. Probing is best-effort; upload proceeds with zero duration
// when the binary is missing or the container is unreadable.
type MediaToolsService interface {
	ProbeDurationSeconds(ctx context.Context, data []byte) (int, error)
}

type mediaToolsService struct {
	log *logger.Logger

	ffprobePath string
	workRoot    string

	defaultTimeout time.Duration
}

func NewMediaToolsService(log *logger.Logger) MediaToolsService {
	slog := log.With("service", "MediaToolsService")
	return &mediaToolsService{
		log:            slog,
		ffprobePath:    "ffprobe",
		workRoot:       "/tmp/talentscout-media",
		defaultTimeout: 60 * time.Second,
	}
}

func (m *mediaToolsService) ProbeDurationSeconds(ctx context.Context, data []byte) (int, error) {
	if _, err := exec.LookPath(m.ffprobePath); err != nil {
		return 0, fmt.Errorf("missing required binary %q in PATH: %w", m.ffprobePath, err)
	}

	path, cleanup, err := m.writeTempFile(data)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, m.defaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	raw := strings.TrimSpace(string(out))
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparseable duration %q: %w", raw, err)
	}
	return int(seconds + 0.5), nil
}

func (m *mediaToolsService) writeTempFile(data []byte) (string, func(), error) {
	if err := os.MkdirAll(m.workRoot, 0o755); err != nil {
		return "", func() {}, fmt.Errorf("mkdir workRoot: %w", err)
	}
	h := sha256.Sum256(data)
	base := hex.EncodeToString(h[:])[:16]
	path := filepath.Join(m.workRoot, base+".video")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", func() {}, fmt.Errorf("write temp file: %w", err)
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil {
			m.log.Warn("failed to remove temp media file", "path", path, "error", err)
		}
	}
	return path, cleanup, nil
}
