package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lexseg/lexseg/internal/pipeerr"
	"github.com/lexseg/lexseg/internal/pipeline"
)

const checkpointFileName = ".checkpoint.json"

// checksumOf hashes the checkpoint's JSON encoding with Checksum cleared,
// so the stored checksum always covers everything except itself.
func checksumOf(cp pipeline.Checkpoint) (string, error) {
	cp.Checksum = ""
	raw, err := json.Marshal(cp)
	if err != nil {
		return "", fmt.Errorf("orchestrator: marshaling checkpoint for checksum: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// WriteCheckpoint atomically persists cp to <dir>/.checkpoint.json: the new
// content is written to a temp file in the same directory, then renamed into
// place, so a crash mid-write never leaves a half-written checkpoint behind.
func WriteCheckpoint(dir string, cp pipeline.Checkpoint) error {
	sum, err := checksumOf(cp)
	if err != nil {
		return err
	}
	cp.Checksum = sum

	raw, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("orchestrator: marshaling checkpoint: %w", err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("orchestrator: creating checkpoint dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*.json.tmp")
	if err != nil {
		return fmt.Errorf("orchestrator: creating temp checkpoint file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("orchestrator: writing temp checkpoint file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("orchestrator: closing temp checkpoint file: %w", err)
	}

	finalPath := filepath.Join(dir, checkpointFileName)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("orchestrator: renaming checkpoint into place: %w", err)
	}
	return nil
}

// LoadCheckpoint reads and validates <dir>/.checkpoint.json. A missing file
// is reported via plain os.IsNotExist-compatible error; a parse failure or
// checksum mismatch is wrapped in pipeerr.ErrCorruptCheckpoint, which callers
// treat as "start over from stage 1", not as fatal.
func LoadCheckpoint(dir string) (pipeline.Checkpoint, error) {
	path := filepath.Join(dir, checkpointFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Checkpoint{}, err
	}

	var cp pipeline.Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return pipeline.Checkpoint{}, pipeerr.NewCheckpointError(path, fmt.Sprintf("invalid JSON: %v", err))
	}

	want := cp.Checksum
	got, err := checksumOf(cp)
	if err != nil {
		return pipeline.Checkpoint{}, pipeerr.NewCheckpointError(path, fmt.Sprintf("recomputing checksum: %v", err))
	}
	if got != want {
		return pipeline.Checkpoint{}, pipeerr.NewCheckpointError(path, "checksum mismatch")
	}
	return cp, nil
}

// stageCompleted reports whether stage n is already recorded as completed
// in cp, so the orchestrator can skip it on resume.
func stageCompleted(cp pipeline.Checkpoint, n int) bool {
	for _, s := range cp.CompletedStages {
		if s == n {
			return true
		}
	}
	return false
}
