package backend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent0ai/a0ctl/internal/config"
)

// TestBuildParseLabels_RoundTrip verifies that the metadata written by
// BuildLabels is fully reconstructed by ParseLabels.
func TestBuildParseLabels_RoundTrip(t *testing.T) {
	cfg := config.ServiceConfig{
		ContainerName: "A0-dev-55022-55080",
		Branch:        "development",
		HTTPPort:      55080,
		SSHPort:       55022,
	}
	createdAt := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)

	labels := BuildLabels(cfg, createdAt)
	require.Equal(t, ManagedByValue, labels[LabelManagedBy])

	info, err := ParseLabels(labels)
	require.NoError(t, err)

	assert.Equal(t, "A0-dev-55022-55080", info.Name)
	assert.Equal(t, "development", info.Branch)
	assert.Equal(t, 55080, info.HTTPPort)
	assert.Equal(t, 55022, info.SSHPort)
	assert.Equal(t, createdAt, info.CreatedAt)
}

// TestParseLabels_MissingKeys verifies that every missing key is reported
// in a single error.
func TestParseLabels_MissingKeys(t *testing.T) {
	_, err := ParseLabels(map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelName:      "A0-dev-55022-55080",
	})
	require.Error(t, err)

	assert.Contains(t, err.Error(), LabelBranch)
	assert.Contains(t, err.Error(), LabelHTTPPort)
	assert.Contains(t, err.Error(), LabelSSHPort)
	assert.Contains(t, err.Error(), LabelCreatedAt)
}

// TestParseLabels_ForeignContainer verifies that a container carrying the
// label keys but a different manager value is rejected rather than adopted.
func TestParseLabels_ForeignContainer(t *testing.T) {
	cfg := config.ServiceConfig{ContainerName: "x", Branch: "b", HTTPPort: 1, SSHPort: 2}
	labels := BuildLabels(cfg, time.Now())
	labels[LabelManagedBy] = "someone-else"

	_, err := ParseLabels(labels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected value")
}

// TestParseLabels_BadPort verifies rejection of unparseable port values.
func TestParseLabels_BadPort(t *testing.T) {
	cfg := config.ServiceConfig{ContainerName: "x", Branch: "b", HTTPPort: 1, SSHPort: 2}
	labels := BuildLabels(cfg, time.Now())
	labels[LabelHTTPPort] = "eighty"

	_, err := ParseLabels(labels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), LabelHTTPPort)
}
