package versions

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cm "github.com/riveterops/riveter/riveter/commandmanager"
	"github.com/riveterops/riveter/riveter/toolspec"
)

type fakeCommandManager struct {
	responses map[string]cm.CommandResult
}

func (f *fakeCommandManager) Run(_ context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	key := config.Command + " " + strings.Join(config.Args, " ")
	if result, ok := f.responses[key]; ok {
		return result, nil
	}
	return cm.CommandResult{ExitCode: 1}, nil
}

// failingIndex fails the test if the resolver reaches for the network.
type failingIndex struct {
	t *testing.T
}

func (f failingIndex) LatestVersion(context.Context, string) (string, error) {
	f.t.Fatal("remote lookup performed for a pinned version")
	return "", nil
}

type staticIndex struct {
	version string
	err     error
}

func (s staticIndex) LatestVersion(context.Context, string) (string, error) {
	return s.version, s.err
}

func specFixture() *toolspec.ToolSpec {
	return &toolspec.ToolSpec{
		Name:        "fluent-bit",
		Strategy:    toolspec.PackageStrategy,
		VersionArgs: []string{"--version"},
		GitHubRepo:  "fluent/fluent-bit",
		Packages:    nil,
	}
}

func TestInstalledExtractsSemver(t *testing.T) {
	manager := &fakeCommandManager{responses: map[string]cm.CommandResult{
		"sh -c command -v fluent-bit": {STDOUT: "/opt/fluent-bit/bin/fluent-bit", ExitCode: 0},
		"fluent-bit --version":        {STDOUT: "Fluent Bit v2.1.8\nCopyright (C) Treasure Data", ExitCode: 0},
	}}

	resolver := NewHostResolver(manager, staticIndex{})
	version, err := resolver.Installed(context.Background(), specFixture())
	require.NoError(t, err)
	assert.Equal(t, "2.1.8", version)
}

func TestInstalledMissingBinaryMeansNone(t *testing.T) {
	manager := &fakeCommandManager{responses: map[string]cm.CommandResult{}}

	resolver := NewHostResolver(manager, staticIndex{})
	version, err := resolver.Installed(context.Background(), specFixture())
	require.NoError(t, err)
	assert.Equal(t, "", version)
}

func TestTargetPinnedNeverLooksUpRemote(t *testing.T) {
	resolver := NewHostResolver(&fakeCommandManager{}, failingIndex{t: t})

	version, err := resolver.Target(context.Background(), specFixture(), "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", version)

	// A leading v is stripped but the pin is otherwise trusted verbatim.
	version, err = resolver.Target(context.Background(), specFixture(), "v9.9.9")
	require.NoError(t, err)
	assert.Equal(t, "9.9.9", version)
}

func TestTargetLatestUsesIndex(t *testing.T) {
	resolver := NewHostResolver(&fakeCommandManager{}, staticIndex{version: "3.0.1"})

	version, err := resolver.Target(context.Background(), specFixture(), Latest)
	require.NoError(t, err)
	assert.Equal(t, "3.0.1", version)
}

func TestTargetLatestFailureIsResolutionError(t *testing.T) {
	resolver := NewHostResolver(&fakeCommandManager{}, staticIndex{err: errors.New("api down")})

	_, err := resolver.Target(context.Background(), specFixture(), "")
	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "fluent/fluent-bit", resErr.Repo)
}

func TestTargetLatestWithoutRepoFails(t *testing.T) {
	spec := specFixture()
	spec.GitHubRepo = ""
	resolver := NewHostResolver(&fakeCommandManager{}, staticIndex{version: "1.0.0"})

	_, err := resolver.Target(context.Background(), spec, Latest)
	var resErr *ResolutionError
	assert.True(t, errors.As(err, &resErr))
}
