// Package versions resolves installed and target versions and decides
// whether an install has any work to do.
package versions

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	cm "github.com/riveterops/riveter/riveter/commandmanager"
	"github.com/riveterops/riveter/riveter/toolspec"
)

// Latest asks for the newest published release instead of a pin.
const Latest = "latest"

// semverPattern pulls the first semantic-version-looking substring out of
// arbitrary --version output.
var semverPattern = regexp.MustCompile(`\d+\.\d+\.\d+(?:-[0-9A-Za-z.]+)?`)

// ResolutionError wraps a failed remote "latest" lookup. Fatal for the
// invocation.
type ResolutionError struct {
	Repo string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving latest release of %s: %v", e.Repo, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Resolver probes the host for the installed version and a remote index
// for the target version.
type Resolver interface {
	Installed(ctx context.Context, spec *toolspec.ToolSpec) (string, error)
	Target(ctx context.Context, spec *toolspec.ToolSpec, pin string) (string, error)
}

// HostResolver runs version probes through the CommandManager and "latest"
// lookups through a ReleaseIndex.
type HostResolver struct {
	CommandManager cm.CommandManager
	Releases       ReleaseIndex
}

func NewHostResolver(manager cm.CommandManager, releases ReleaseIndex) *HostResolver {
	return &HostResolver{CommandManager: manager, Releases: releases}
}

// Installed runs the tool's own version command and extracts a semver
// substring. A missing binary yields "" without error.
func (r *HostResolver) Installed(ctx context.Context, spec *toolspec.ToolSpec) (string, error) {
	binary := spec.Binary()

	probe, err := r.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "sh",
		Args:    []string{"-c", "command -v " + binary},
	})
	if err != nil || probe.ExitCode != 0 || strings.TrimSpace(probe.STDOUT) == "" {
		return "", nil
	}

	args := spec.VersionArgs
	if len(args) == 0 {
		args = []string{"--version"}
	}
	result, err := r.CommandManager.Run(ctx, cm.CommandConfig{Command: binary, Args: args})
	if err != nil {
		// Binary exists but won't report a version. Treat as not
		// installed so the install proceeds and repairs it.
		log.WithFields(log.Fields{"tool": spec.Name, "error": err}).Warn("Version probe failed")
		return "", nil
	}

	version := semverPattern.FindString(result.STDOUT + result.STDERR)
	return version, nil
}

// Target returns a pin verbatim, never validating it remotely. "latest"
// (or empty) queries the release index.
func (r *HostResolver) Target(ctx context.Context, spec *toolspec.ToolSpec, pin string) (string, error) {
	if pin != "" && pin != Latest {
		return strings.TrimPrefix(pin, "v"), nil
	}

	if spec.GitHubRepo == "" {
		return "", &ResolutionError{Repo: spec.Name, Err: fmt.Errorf("no release index configured and no version pinned")}
	}

	version, err := r.Releases.LatestVersion(ctx, spec.GitHubRepo)
	if err != nil {
		return "", &ResolutionError{Repo: spec.GitHubRepo, Err: err}
	}
	return version, nil
}
