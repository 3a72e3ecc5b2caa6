package servicemanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cm "github.com/riveterops/riveter/riveter/commandmanager"
)

func TestDarwinRegisterRendersPlist(t *testing.T) {
	manager := &fakeCommandManager{}
	files := newFakeFileManager()
	dsm := &DarwinServiceManager{CommandManager: manager, Files: files}

	unitPath, err := dsm.Register(context.Background(), serviceFixture(), "fluent-bit")
	require.NoError(t, err)
	assert.Equal(t, "/Library/LaunchDaemons/fluent-bit.plist", unitPath)

	plist := string(files.written[unitPath])
	assert.Contains(t, plist, "<string>fluent-bit</string>")
	assert.Contains(t, plist, "<string>/opt/fluent-bit/bin/fluent-bit</string>")
	assert.Contains(t, plist, "<key>KeepAlive</key>")
	assert.Contains(t, plist, "<key>AWS_REGION</key>")

	assert.Contains(t, manager.calls, "launchctl bootstrap system /Library/LaunchDaemons/fluent-bit.plist")
}

func TestDarwinStatusRunning(t *testing.T) {
	files := newFakeFileManager()
	files.exists["/Library/LaunchDaemons/fluent-bit.plist"] = true
	manager := &fakeCommandManager{responses: map[string]cm.CommandResult{
		"launchctl print system/fluent-bit": {STDOUT: "system/fluent-bit = {\n\tstate = running\n}", ExitCode: 0},
	}}
	dsm := &DarwinServiceManager{CommandManager: manager, Files: files}

	state, err := dsm.Status(context.Background(), "fluent-bit")
	require.NoError(t, err)
	assert.Equal(t, Running, state)
}

func TestDarwinStatusNotInstalled(t *testing.T) {
	dsm := &DarwinServiceManager{CommandManager: &fakeCommandManager{}, Files: newFakeFileManager()}

	state, err := dsm.Status(context.Background(), "fluent-bit")
	require.NoError(t, err)
	assert.Equal(t, NotInstalled, state)
}
