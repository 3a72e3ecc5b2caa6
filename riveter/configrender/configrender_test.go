package configrender

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/riveterops/riveter/riveter/toolspec"
)

type fakeFileManager struct {
	written map[string][]byte
	modes   map[string]string
	dirs    []string
	chowns  map[string]string
}

func newFakeFileManager() *fakeFileManager {
	return &fakeFileManager{
		written: map[string][]byte{},
		modes:   map[string]string{},
		chowns:  map[string]string{},
	}
}

func (f *fakeFileManager) WriteFile(_ context.Context, path string, content []byte, mode string) error {
	f.written[path] = content
	f.modes[path] = mode
	return nil
}

func (f *fakeFileManager) InstallBinary(_ context.Context, src, dst string) error { return nil }

func (f *fakeFileManager) MkdirAll(_ context.Context, path string) error {
	f.dirs = append(f.dirs, path)
	return nil
}

func (f *fakeFileManager) Chown(_ context.Context, path, owner string) error {
	f.chowns[path] = owner
	return nil
}

func (f *fakeFileManager) Remove(_ context.Context, path string) error    { return nil }
func (f *fakeFileManager) RemoveAll(_ context.Context, path string) error { return nil }
func (f *fakeFileManager) Exists(_ context.Context, path string) (bool, error) {
	_, ok := f.written[path]
	return ok, nil
}

func fluentBitSpec() *toolspec.ToolSpec {
	return &toolspec.ToolSpec{
		Name:        "fluent-bit",
		Strategy:    toolspec.PackageStrategy,
		ServiceUser: "fluent-bit",
		Config: &toolspec.ConfigSpec{
			Path:         "/etc/fluent-bit/fluent-bit.conf",
			Format:       "template",
			Template:     "region {{.region}}\nbucket {{.s3_bucket}}\n",
			RequiredKeys: []string{"region", "s3_bucket"},
		},
	}
}

func TestPreflightMissingRequiredKey(t *testing.T) {
	target := toolspec.TargetState{Values: map[string]string{"region": "us-east-1"}}

	err := Preflight(fluentBitSpec(), target)
	var missing *MissingKeyError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"s3_bucket"}, missing.Keys)
}

func TestPreflightDefaultsSatisfyRequiredKeys(t *testing.T) {
	spec := fluentBitSpec()
	spec.Config.Defaults = map[string]string{"s3_bucket": "central-logs"}
	target := toolspec.TargetState{Values: map[string]string{"region": "us-east-1"}}

	assert.NoError(t, Preflight(spec, target))
}

func TestRenderWritesNothingOnMissingKey(t *testing.T) {
	files := newFakeFileManager()
	renderer := NewRenderer(files)

	_, err := renderer.Render(context.Background(), fluentBitSpec(), toolspec.TargetState{})
	var missing *MissingKeyError
	require.True(t, errors.As(err, &missing))
	assert.Empty(t, files.written)
	assert.Empty(t, files.dirs)
}

func TestRenderTemplateConfig(t *testing.T) {
	files := newFakeFileManager()
	renderer := NewRenderer(files)
	target := toolspec.TargetState{Values: map[string]string{
		"region":    "us-east-1",
		"s3_bucket": "central-logs",
	}}

	path, err := renderer.Render(context.Background(), fluentBitSpec(), target)
	require.NoError(t, err)
	assert.Equal(t, "/etc/fluent-bit/fluent-bit.conf", path)

	content := string(files.written[path])
	assert.Contains(t, content, "region us-east-1")
	assert.Contains(t, content, "bucket central-logs")
	assert.Equal(t, "0640", files.modes[path])
	assert.Contains(t, files.dirs, "/etc/fluent-bit")
	assert.Equal(t, "fluent-bit", files.chowns["/etc/fluent-bit"])
}

func TestRenderINIConfig(t *testing.T) {
	files := newFakeFileManager()
	renderer := NewRenderer(files)
	spec := &toolspec.ToolSpec{
		Name:     "msk-kafka-cli",
		Strategy: toolspec.ArtifactStrategy,
		Config: &toolspec.ConfigSpec{
			Path:         "/etc/msk-kafka-cli/client.properties",
			Format:       "ini",
			RequiredKeys: []string{"broker"},
			Defaults:     map[string]string{"security.protocol": "SASL_SSL"},
		},
	}
	target := toolspec.TargetState{Values: map[string]string{"broker": "b-1.example:9098"}}

	path, err := renderer.Render(context.Background(), spec, target)
	require.NoError(t, err)

	content := string(files.written[path])
	assert.Contains(t, content, "broker")
	assert.Contains(t, content, "b-1.example:9098")
	assert.Contains(t, content, "security.protocol")
}

func TestRenderYAMLConfig(t *testing.T) {
	files := newFakeFileManager()
	renderer := NewRenderer(files)
	spec := &toolspec.ToolSpec{
		Name:     "agent",
		Strategy: toolspec.ArtifactStrategy,
		Config: &toolspec.ConfigSpec{
			Path:   "/etc/agent/agent.yaml",
			Format: "yaml",
		},
	}
	target := toolspec.TargetState{Values: map[string]string{"port": "8125"}}

	path, err := renderer.Render(context.Background(), spec, target)
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, yaml.Unmarshal(files.written[path], &decoded))
	assert.Equal(t, "8125", decoded["port"])
}

func TestRenderFlagValuesOverrideDefaults(t *testing.T) {
	files := newFakeFileManager()
	renderer := NewRenderer(files)
	spec := &toolspec.ToolSpec{
		Name:     "oh-my-posh",
		Strategy: toolspec.ArtifactStrategy,
		Config: &toolspec.ConfigSpec{
			Path:     "/etc/oh-my-posh/config.json",
			Format:   "template",
			Template: `{"theme": "{{.theme}}"}`,
			Defaults: map[string]string{"theme": "jandedobbeleer"},
		},
	}
	target := toolspec.TargetState{Values: map[string]string{"theme": "atomic"}}

	path, err := renderer.Render(context.Background(), spec, target)
	require.NoError(t, err)
	assert.Contains(t, string(files.written[path]), `"theme": "atomic"`)
}

func TestRenderNoConfigIsNoop(t *testing.T) {
	files := newFakeFileManager()
	renderer := NewRenderer(files)
	spec := &toolspec.ToolSpec{Name: "bare", Strategy: toolspec.ArtifactStrategy}

	path, err := renderer.Render(context.Background(), spec, toolspec.TargetState{})
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Empty(t, files.written)
}
