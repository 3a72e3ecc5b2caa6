// Package orchestrator runs the linear install/uninstall/service flows,
// composing the detector, resolver, installers, renderer and service
// manager through narrow injected interfaces.
package orchestrator

import (
	"context"
	"fmt"
	"path"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/riveterops/riveter/riveter/artifact"
	cm "github.com/riveterops/riveter/riveter/commandmanager"
	"github.com/riveterops/riveter/riveter/configrender"
	"github.com/riveterops/riveter/riveter/filemanager"
	"github.com/riveterops/riveter/riveter/packagemanager"
	"github.com/riveterops/riveter/riveter/platform"
	"github.com/riveterops/riveter/riveter/servicemanager"
	"github.com/riveterops/riveter/riveter/toolspec"
	"github.com/riveterops/riveter/riveter/usermanager"
	"github.com/riveterops/riveter/riveter/versions"
)

const defaultInstallDir = "/usr/local/bin"

// Orchestrator drives one tool through its lifecycle on one host.
type Orchestrator struct {
	Platform platform.Platform
	Resolver versions.Resolver
	Packages packagemanager.PackageManager
	Fetcher  *artifact.Fetcher
	Files    filemanager.FileManager
	Config   *configrender.Renderer
	Services servicemanager.ServiceManager
	Users    usermanager.UserManager
}

// NewForPlatform wires the default component set for a detected platform.
// Package and service managers stay nil where the platform has none;
// flows that need them fail with a clear error instead.
func NewForPlatform(p platform.Platform, manager cm.CommandManager, releases versions.ReleaseIndex) *Orchestrator {
	files := filemanager.NewUnixFileManager(manager)

	o := &Orchestrator{
		Platform: p,
		Resolver: versions.NewHostResolver(manager, releases),
		Fetcher:  artifact.NewFetcher(),
		Files:    files,
		Config:   configrender.NewRenderer(files),
	}

	if pkgs, err := packagemanager.ForPlatform(p.PackageManager, manager); err == nil {
		o.Packages = pkgs
	}
	if svcs, err := servicemanager.ForPlatform(p, manager, files); err == nil {
		o.Services = svcs
	}
	switch p.OSFamily {
	case platform.Linux:
		o.Users = usermanager.NewLinuxUserManager(manager)
	case platform.Darwin:
		o.Users = usermanager.NewDarwinUserManager(manager)
	}
	return o
}

// InstallOutcome tells the CLI what happened; Skipped means the
// idempotency gate fired and nothing was touched.
type InstallOutcome struct {
	Tool    string
	Version string
	Skipped bool
	Started bool
}

// Install runs the full flow: resolve versions, gate, fetch, render
// config, register and optionally start the service.
func (o *Orchestrator) Install(ctx context.Context, spec *toolspec.ToolSpec, target toolspec.TargetState) (InstallOutcome, error) {
	outcome := InstallOutcome{Tool: spec.Name}

	installed, err := o.installedVersion(ctx, spec)
	if err != nil {
		return outcome, err
	}

	targetVersion, err := o.Resolver.Target(ctx, spec, target.Version)
	if err != nil {
		return outcome, err
	}
	outcome.Version = targetVersion

	if !versions.ShouldInstall(installed, targetVersion) {
		log.WithFields(log.Fields{"tool": spec.Name, "version": installed}).Info("Already up to date, skipping")
		outcome.Skipped = true
		return outcome, nil
	}

	// Required config values are checked before any download or write
	// happens, so a bad invocation leaves no trace.
	if err := configrender.Preflight(spec, target); err != nil {
		return outcome, err
	}

	if err := o.fetchAndInstall(ctx, spec, targetVersion); err != nil {
		return outcome, err
	}

	if spec.ServiceUser != "" && o.Users != nil {
		if err := o.Users.EnsureServiceUser(ctx, spec.ServiceUser, spec.DataDir); err != nil {
			return outcome, err
		}
	}

	if spec.DataDir != "" {
		if err := o.Files.MkdirAll(ctx, spec.DataDir); err != nil {
			return outcome, err
		}
		if spec.ServiceUser != "" {
			if err := o.Files.Chown(ctx, spec.DataDir, spec.ServiceUser); err != nil {
				return outcome, err
			}
		}
	}

	if _, err := o.Config.Render(ctx, spec, target); err != nil {
		return outcome, err
	}

	if spec.Service != nil {
		if o.Services == nil {
			return outcome, fmt.Errorf("tool %s needs a service manager: %w", spec.Name, platform.ErrUnsupportedPlatform)
		}
		if _, err := o.Services.Register(ctx, spec.Service, spec.ServiceUser); err != nil {
			return outcome, err
		}
		if target.AutoStart {
			if err := o.Services.Start(ctx, spec.Service.Name); err != nil {
				return outcome, err
			}
			outcome.Started = true
		}
	}

	log.WithFields(log.Fields{"tool": spec.Name, "version": targetVersion}).Info("Install complete")
	return outcome, nil
}

// installedVersion probes the binary first, then falls back to the
// package database for package-strategy tools. Packages like fluent-bit
// install their binary outside PATH, so the PATH probe alone would miss
// them and defeat the idempotency gate.
func (o *Orchestrator) installedVersion(ctx context.Context, spec *toolspec.ToolSpec) (string, error) {
	version, err := o.Resolver.Installed(ctx, spec)
	if err != nil || version != "" {
		return version, err
	}
	if spec.Strategy == toolspec.PackageStrategy && o.Packages != nil {
		if pkg, ok := spec.Packages[o.Platform.PackageManager]; ok {
			return o.Packages.InstalledVersion(ctx, pkg)
		}
	}
	return "", nil
}

func (o *Orchestrator) fetchAndInstall(ctx context.Context, spec *toolspec.ToolSpec, version string) error {
	switch spec.Strategy {
	case toolspec.PackageStrategy:
		if o.Packages == nil {
			return fmt.Errorf("tool %s needs a package manager: %w", spec.Name, platform.ErrUnsupportedPlatform)
		}
		pkg, ok := spec.Packages[o.Platform.PackageManager]
		if !ok {
			return fmt.Errorf("tool %s has no package mapping for %s: %w",
				spec.Name, o.Platform.PackageManager, platform.ErrUnsupportedPlatform)
		}
		return o.Packages.Install(ctx, pkg)

	case toolspec.ArtifactStrategy:
		ws, err := artifact.NewWorkspace()
		if err != nil {
			return err
		}
		defer ws.Close()

		staged, err := o.Fetcher.Fetch(ctx, spec, version, o.Platform, ws)
		if err != nil {
			return err
		}
		return o.Files.InstallBinary(ctx, staged, o.binaryPath(spec))

	default:
		return fmt.Errorf("tool %s: unknown strategy %q", spec.Name, spec.Strategy)
	}
}

// Uninstall reverses the install. Every step runs even when earlier ones
// fail; the errors come back aggregated.
func (o *Orchestrator) Uninstall(ctx context.Context, spec *toolspec.ToolSpec, purgeUser bool) error {
	var errs *multierror.Error

	if spec.Service != nil && o.Services != nil {
		if err := o.Services.Stop(ctx, spec.Service.Name); err != nil {
			// Stopping a never-started service is expected noise.
			log.WithFields(log.Fields{"service": spec.Service.Name, "error": err}).Debug("Stop during uninstall")
		}
		if err := o.Services.Unregister(ctx, spec.Service.Name); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	switch spec.Strategy {
	case toolspec.PackageStrategy:
		if o.Packages != nil {
			if pkg, ok := spec.Packages[o.Platform.PackageManager]; ok {
				if err := o.Packages.Remove(ctx, pkg); err != nil {
					errs = multierror.Append(errs, err)
				}
			}
		}
	case toolspec.ArtifactStrategy:
		if err := o.Files.Remove(ctx, o.binaryPath(spec)); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	if spec.Config != nil {
		if err := o.Files.RemoveAll(ctx, path.Dir(spec.Config.Path)); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if spec.DataDir != "" {
		if err := o.Files.RemoveAll(ctx, spec.DataDir); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if purgeUser && spec.ServiceUser != "" && o.Users != nil {
		if err := o.Users.Delete(ctx, spec.ServiceUser); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("uninstalling %s: %w", spec.Name, err)
	}
	log.WithFields(log.Fields{"tool": spec.Name}).Info("Uninstall complete")
	return nil
}

// Start brings the tool's service up.
func (o *Orchestrator) Start(ctx context.Context, spec *toolspec.ToolSpec) error {
	svc, err := o.requireService(spec)
	if err != nil {
		return err
	}
	return o.Services.Start(ctx, svc.Name)
}

// Stop takes the tool's service down.
func (o *Orchestrator) Stop(ctx context.Context, spec *toolspec.ToolSpec) error {
	svc, err := o.requireService(spec)
	if err != nil {
		return err
	}
	return o.Services.Stop(ctx, svc.Name)
}

// ServiceStatus reports the managed service's observable state.
func (o *Orchestrator) ServiceStatus(ctx context.Context, spec *toolspec.ToolSpec) (servicemanager.ServiceState, error) {
	svc, err := o.requireService(spec)
	if err != nil {
		return "", err
	}
	return o.Services.Status(ctx, svc.Name)
}

func (o *Orchestrator) requireService(spec *toolspec.ToolSpec) (*toolspec.ServiceSpec, error) {
	if spec.Service == nil {
		return nil, fmt.Errorf("tool %s does not run as a service", spec.Name)
	}
	if o.Services == nil {
		return nil, fmt.Errorf("no service manager on this platform: %w", platform.ErrUnsupportedPlatform)
	}
	return spec.Service, nil
}

func (o *Orchestrator) binaryPath(spec *toolspec.ToolSpec) string {
	dir := defaultInstallDir
	if spec.Artifact != nil && spec.Artifact.InstallDir != "" {
		dir = spec.Artifact.InstallDir
	}
	name := spec.Binary()
	if spec.Artifact != nil && spec.Artifact.BinaryName != "" {
		name = spec.Artifact.BinaryName
	}
	return path.Join(dir, name)
}
