package versions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldInstallWhenAbsent(t *testing.T) {
	assert.True(t, ShouldInstall("", "1.2.3"))
	assert.True(t, ShouldInstall("", "latest"))
}

func TestShouldInstallSkipsEqualVersions(t *testing.T) {
	assert.False(t, ShouldInstall("1.2.3", "1.2.3"))
	// Semver equality ignores formatting differences.
	assert.False(t, ShouldInstall("1.2.3", "v1.2.3"))
	assert.False(t, ShouldInstall("1.2.3.0", "1.2.3"))
}

func TestShouldInstallOnVersionChange(t *testing.T) {
	assert.True(t, ShouldInstall("1.2.3", "1.2.4"))
	assert.True(t, ShouldInstall("2.0.0", "1.9.9"))
}

func TestShouldInstallFallsBackToStringCompare(t *testing.T) {
	assert.False(t, ShouldInstall("nightly", "nightly"))
	assert.True(t, ShouldInstall("nightly", "1.2.3"))
}
