// Package configrender writes the tool's configuration file from its
// template and the operator-supplied values. Validation happens before
// any byte hits the disk.
package configrender

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/riveterops/riveter/riveter/filemanager"
	"github.com/riveterops/riveter/riveter/toolspec"
)

const configMode = "0640"

// MissingKeyError reports required config values absent from the target
// state. Raised before any side effect.
type MissingKeyError struct {
	Tool string
	Keys []string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("tool %s: missing required config values: %s", e.Tool, strings.Join(e.Keys, ", "))
}

// Preflight validates required config values without touching the host.
// The orchestrator calls it before any download or write.
func Preflight(spec *toolspec.ToolSpec, target toolspec.TargetState) error {
	if spec.Config == nil {
		return nil
	}
	values := mergeValues(spec.Config.Defaults, target.Values)
	if missing := missingKeys(spec.Config.RequiredKeys, values); len(missing) > 0 {
		return &MissingKeyError{Tool: spec.Name, Keys: missing}
	}
	return nil
}

type Renderer struct {
	Files filemanager.FileManager
}

func NewRenderer(files filemanager.FileManager) *Renderer {
	return &Renderer{Files: files}
}

// Render produces the config file and returns its path. owner, when
// non-empty, takes ownership of the config directory.
func (r *Renderer) Render(ctx context.Context, spec *toolspec.ToolSpec, target toolspec.TargetState) (string, error) {
	cfg := spec.Config
	if cfg == nil {
		return "", nil
	}

	values := mergeValues(cfg.Defaults, target.Values)
	if missing := missingKeys(cfg.RequiredKeys, values); len(missing) > 0 {
		return "", &MissingKeyError{Tool: spec.Name, Keys: missing}
	}

	content, err := renderContent(spec.Name, cfg, values)
	if err != nil {
		return "", err
	}

	if err := r.Files.MkdirAll(ctx, filepath.Dir(cfg.Path)); err != nil {
		return "", err
	}
	if err := r.Files.WriteFile(ctx, cfg.Path, content, configMode); err != nil {
		return "", err
	}
	if spec.ServiceUser != "" {
		if err := r.Files.Chown(ctx, filepath.Dir(cfg.Path), spec.ServiceUser); err != nil {
			return "", err
		}
	}

	log.WithFields(log.Fields{"tool": spec.Name, "path": cfg.Path}).Info("Rendered configuration")
	return cfg.Path, nil
}

func renderContent(tool string, cfg *toolspec.ConfigSpec, values map[string]string) ([]byte, error) {
	switch cfg.Format {
	case "", "template":
		return renderTemplate(tool, cfg.Template, values)
	case "ini":
		return renderINI(values)
	case "yaml":
		return renderYAML(values)
	default:
		return nil, fmt.Errorf("tool %s: unknown config format %q", tool, cfg.Format)
	}
}

func renderTemplate(tool, text string, values map[string]string) ([]byte, error) {
	tmpl, err := template.New(tool).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing config template for %s: %w", tool, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, values); err != nil {
		return nil, fmt.Errorf("rendering config template for %s: %w", tool, err)
	}
	return buf.Bytes(), nil
}

// renderINI emits a flat properties file, the format Kafka-style clients
// expect.
func renderINI(values map[string]string) ([]byte, error) {
	file := ini.Empty()
	section := file.Section("")

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, err := section.NewKey(key, values[key]); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderYAML(values map[string]string) ([]byte, error) {
	return yaml.Marshal(values)
}

func mergeValues(defaults, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(defaults)+len(overrides))
	for key, value := range defaults {
		merged[key] = value
	}
	for key, value := range overrides {
		merged[key] = value
	}
	return merged
}

func missingKeys(required []string, values map[string]string) []string {
	var missing []string
	for _, key := range required {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
