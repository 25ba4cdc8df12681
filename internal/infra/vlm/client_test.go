package vlm

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelectionPlainJSON(t *testing.T) {
	indices, reason, err := ParseSelection(`{"selected_indices": [0, 3], "reason": "clip placed"}`)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, indices)
	assert.Equal(t, "clip placed", reason)
}

func TestParseSelectionFencedJSON(t *testing.T) {
	content := "```json\n{\"selected_indices\": [1], \"reason\": \"instrument change\"}\n```"
	indices, reason, err := ParseSelection(content)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, indices)
	assert.Equal(t, "instrument change", reason)
}

func TestParseSelectionBareFence(t *testing.T) {
	content := "```\n{\"selected_indices\": [2, 4]}\n```"
	indices, _, err := ParseSelection(content)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, indices)
}

func TestParseSelectionEmptyList(t *testing.T) {
	indices, _, err := ParseSelection(`{"selected_indices": [], "reason": "no significant transitions"}`)
	require.NoError(t, err)
	assert.Empty(t, indices)
	assert.NotNil(t, indices)
}

func TestParseSelectionNotJSON(t *testing.T) {
	_, _, err := ParseSelection("I selected frames 0 and 3 because they show the clipping step.")
	assert.Error(t, err)
}

func TestParseSelectionMissingIndices(t *testing.T) {
	_, _, err := ParseSelection(`{"reason": "looks fine"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selected_indices")
}

func TestEncodeImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame_000001.png")
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	url, err := encodeImage(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
	assert.Equal(t, base64.StdEncoding.EncodeToString(payload), strings.TrimPrefix(url, "data:image/png;base64,"))
}

func TestEncodeImageJPEGMime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.JPG")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xd8}, 0o644))

	url, err := encodeImage(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))
}

func TestEncodeImageMissingFile(t *testing.T) {
	_, err := encodeImage(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}
