// Package servicemanager registers, starts, stops and removes the daemon
// units behind installed tools.
package servicemanager

import (
	"context"
	"fmt"

	cm "github.com/riveterops/riveter/riveter/commandmanager"
	"github.com/riveterops/riveter/riveter/filemanager"
	"github.com/riveterops/riveter/riveter/platform"
	"github.com/riveterops/riveter/riveter/toolspec"
)

// ServiceState is the observable state of a managed service.
type ServiceState string

const (
	NotInstalled ServiceState = "not-installed"
	Stopped      ServiceState = "stopped"
	Running      ServiceState = "running"
	Failed       ServiceState = "failed"
)

// StartError carries the service manager's own status output so the
// operator sees why the daemon would not come up. The orchestrator never
// retries a failed start; the unit's restart policy owns that.
type StartError struct {
	Service string
	Status  string
	Err     error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("starting service %s: %v\n%s", e.Service, e.Err, e.Status)
}

func (e *StartError) Unwrap() error { return e.Err }

// ServiceManager writes a unit description and drives the host's service
// manager through its lifecycle verbs.
type ServiceManager interface {
	// Register writes the unit file, reloads the manager and enables the
	// service. Returns the unit path.
	Register(ctx context.Context, svc *toolspec.ServiceSpec, user string) (string, error)
	// Unregister stops nothing by itself; callers stop first.
	Unregister(ctx context.Context, name string) error
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Status(ctx context.Context, name string) (ServiceState, error)
	UnitPath(name string) string
}

// ForPlatform picks the service manager implementation for the host.
func ForPlatform(p platform.Platform, manager cm.CommandManager, files filemanager.FileManager) (ServiceManager, error) {
	switch p.OSFamily {
	case platform.Linux:
		return &LinuxServiceManager{CommandManager: manager, Files: files}, nil
	case platform.Darwin:
		return &DarwinServiceManager{CommandManager: manager, Files: files}, nil
	default:
		return nil, fmt.Errorf("no service manager for %s: %w", p.OSFamily, platform.ErrUnsupportedPlatform)
	}
}
