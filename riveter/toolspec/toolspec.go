// Package toolspec holds the static per-tool descriptors and the two
// state views the orchestrator works with: what is on the host right now
// and what the operator asked for.
package toolspec

import (
	"fmt"

	"github.com/riveterops/riveter/riveter/platform"
)

// Strategy selects how a tool gets onto the host.
type Strategy string

const (
	// PackageStrategy installs through the distro package manager.
	PackageStrategy Strategy = "package"
	// ArtifactStrategy downloads a published release asset.
	ArtifactStrategy Strategy = "artifact"
)

// ArtifactSpec describes a downloadable release asset.
type ArtifactSpec struct {
	// URLTemplate is rendered with {{.Version}}, {{.OS}} and {{.Arch}}.
	URLTemplate string `yaml:"url_template"`
	// Format is one of binary, tar.gz, zip.
	Format string `yaml:"format"`
	// BinaryName is the executable to place on PATH after extraction.
	BinaryName string `yaml:"binary_name"`
	// MinSize rejects truncated downloads before extraction.
	MinSize int64 `yaml:"min_size"`
	// InstallDir defaults to /usr/local/bin.
	InstallDir string `yaml:"install_dir"`
}

// ConfigSpec describes the rendered configuration file.
type ConfigSpec struct {
	Path     string `yaml:"path"`
	Format   string `yaml:"format"` // template, ini or yaml
	Template string `yaml:"template"`
	// RequiredKeys must be present in TargetState.Values before anything
	// is written.
	RequiredKeys []string          `yaml:"required_keys"`
	Defaults     map[string]string `yaml:"defaults"`
}

// ServiceSpec describes the daemon unit registered for the tool.
type ServiceSpec struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	ExecStart   string            `yaml:"exec_start"`
	WorkingDir  string            `yaml:"working_dir"`
	EnvVars     map[string]string `yaml:"env_vars"`
}

// ToolSpec is the immutable descriptor for one installable tool.
type ToolSpec struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"display_name"`
	Strategy    Strategy `yaml:"strategy"`

	// VersionArgs invoke the installed binary's version output,
	// VersionBinary defaults to Name.
	VersionBinary string   `yaml:"version_binary"`
	VersionArgs   []string `yaml:"version_args"`

	// Packages maps a package manager to the distro package name.
	Packages map[platform.PackageManagerKind]string `yaml:"packages"`

	// GitHubRepo ("owner/repo") backs "latest" version resolution for
	// artifact installs.
	GitHubRepo string `yaml:"github_repo"`

	Artifact *ArtifactSpec `yaml:"artifact"`
	Config   *ConfigSpec   `yaml:"config"`
	Service  *ServiceSpec  `yaml:"service"`

	// ServiceUser, when set, is created on install and owns config and
	// data directories.
	ServiceUser string `yaml:"service_user"`
	DataDir     string `yaml:"data_dir"`
}

// Validate rejects descriptors the orchestrator cannot act on.
func (s *ToolSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("tool spec has no name")
	}
	switch s.Strategy {
	case PackageStrategy:
		if len(s.Packages) == 0 {
			return fmt.Errorf("tool %s: package strategy without package mapping", s.Name)
		}
	case ArtifactStrategy:
		if s.Artifact == nil || s.Artifact.URLTemplate == "" {
			return fmt.Errorf("tool %s: artifact strategy without a url template", s.Name)
		}
	default:
		return fmt.Errorf("tool %s: unknown strategy %q", s.Name, s.Strategy)
	}
	if s.Service != nil && s.Service.ExecStart == "" {
		return fmt.Errorf("tool %s: service without exec_start", s.Name)
	}
	return nil
}

// Binary returns the executable probed for the installed version.
func (s *ToolSpec) Binary() string {
	if s.VersionBinary != "" {
		return s.VersionBinary
	}
	return s.Name
}

// InstalledState is re-derived from the host at the start of every run,
// never persisted.
type InstalledState struct {
	// Version is empty when the tool is absent.
	Version    string
	BinaryPath string
	ConfigPath string
	UnitPath   string
	User       string
}

// Installed reports whether any version of the tool is present.
func (s InstalledState) Installed() bool {
	return s.Version != ""
}

// TargetState is built once from flags and environment and stays
// immutable for the run.
type TargetState struct {
	// Version is a pin or "latest".
	Version string
	// Values feed the config template.
	Values map[string]string
	// AutoStart enables and starts the service after install.
	AutoStart bool
}
