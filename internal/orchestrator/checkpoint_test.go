package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexseg/lexseg/internal/pipeline"
)

func sampleCheckpoint() pipeline.Checkpoint {
	return pipeline.Checkpoint{
		PipelineVersion: Version,
		Source:          "/data/batch",
		CurrentStage:    stageProfile,
		CompletedStages: []int{stageExtractFast, stageProfile},
		StageResults: map[string]pipeline.StageResult{
			"extract-fast": {Status: pipeline.StageStatusOK, DurationMs: 12, OutputPath: "extracted/fast-parse.json"},
		},
	}
}

func TestWriteLoadCheckpointRoundTrips(t *testing.T) {
	dir := t.TempDir()
	cp := sampleCheckpoint()

	require.NoError(t, WriteCheckpoint(dir, cp))

	loaded, err := LoadCheckpoint(dir)
	require.NoError(t, err)
	assert.Equal(t, cp.Source, loaded.Source)
	assert.Equal(t, cp.CompletedStages, loaded.CompletedStages)
	assert.NotEmpty(t, loaded.Checksum)
}

func TestWriteCheckpointLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteCheckpoint(dir, sampleCheckpoint()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestLoadCheckpointMissingFileIsNotExist(t *testing.T) {
	_, err := LoadCheckpoint(t.TempDir())
	assert.True(t, os.IsNotExist(err))
}

func TestLoadCheckpointDetectsChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	cp := sampleCheckpoint()
	require.NoError(t, WriteCheckpoint(dir, cp))

	path := filepath.Join(dir, checkpointFileName)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := []byte(strings.Replace(string(raw), `"/data/batch"`, `"/data/tampered"`, 1))
	require.NoError(t, os.WriteFile(path, tampered, 0o600))

	_, err = LoadCheckpoint(dir)
	require.Error(t, err)
}

func TestLoadCheckpointDetectsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, checkpointFileName), []byte("{not json"), 0o600))

	_, err := LoadCheckpoint(dir)
	require.Error(t, err)
}

func TestStageCompleted(t *testing.T) {
	cp := sampleCheckpoint()
	assert.True(t, stageCompleted(cp, stageExtractFast))
	assert.True(t, stageCompleted(cp, stageProfile))
	assert.False(t, stageCompleted(cp, stageSegment))
}

func TestWriteCheckpointOverwritesPreviousState(t *testing.T) {
	dir := t.TempDir()
	cp := sampleCheckpoint()
	require.NoError(t, WriteCheckpoint(dir, cp))

	cp.CompletedStages = append(cp.CompletedStages, stageClassify)
	cp.CurrentStage = stageClassify
	require.NoError(t, WriteCheckpoint(dir, cp))

	loaded, err := LoadCheckpoint(dir)
	require.NoError(t, err)
	assert.Equal(t, stageClassify, loaded.CurrentStage)
	assert.Len(t, loaded.CompletedStages, 3)
}
