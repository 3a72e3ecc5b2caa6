package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveterops/riveter/riveter/platform"
)

func TestRenderURL(t *testing.T) {
	plat := platform.Platform{OSFamily: platform.Linux, Arch: platform.AMD64}

	url, err := RenderURL("https://example.com/releases/v{{.Version}}/tool-{{.OS}}-{{.Arch}}.tar.gz", "1.2.3", plat)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/releases/v1.2.3/tool-linux-amd64.tar.gz", url)
}

func TestRenderURLStripsLeadingV(t *testing.T) {
	plat := platform.Platform{OSFamily: platform.Darwin, Arch: platform.ARM64}

	url, err := RenderURL("https://example.com/{{.Version}}/{{.OS}}-{{.Arch}}", "v2.0.0", plat)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/2.0.0/darwin-arm64", url)
}

func TestRenderURLRejectsBadTemplate(t *testing.T) {
	_, err := RenderURL("https://example.com/{{.Version", "1.0.0", platform.Platform{})
	assert.Error(t, err)
}

func TestWorkspaceCloseRemovesDirectory(t *testing.T) {
	ws, err := NewWorkspace()
	require.NoError(t, err)
	dir := ws.Dir

	ws.Close()
	assert.NoDirExists(t, dir)
	// Close is safe to call twice.
	ws.Close()
}
