// Package packagemanager shells out to the host's native package manager.
// Each implementation relies on the manager's own transaction and
// idempotency semantics.
package packagemanager

import (
	"context"
	"fmt"

	cm "github.com/riveterops/riveter/riveter/commandmanager"
	"github.com/riveterops/riveter/riveter/platform"
)

type PackageManager interface {
	// Install brings the package to its repository's current version.
	Install(ctx context.Context, pkg string) error
	// Remove uninstalls the package, leaving config cleanup to the caller.
	Remove(ctx context.Context, pkg string) error
	// InstalledVersion returns "" when the package database has no entry.
	InstalledVersion(ctx context.Context, pkg string) (string, error)
}

// ForPlatform maps the detected package manager onto an implementation.
func ForPlatform(kind platform.PackageManagerKind, manager cm.CommandManager) (PackageManager, error) {
	switch kind {
	case platform.Apt:
		return &AptPackageManager{CommandManager: manager}, nil
	case platform.Dnf:
		return &DnfPackageManager{CommandManager: manager}, nil
	case platform.Yum:
		return &YumPackageManager{CommandManager: manager}, nil
	case platform.Apk:
		return &ApkPackageManager{CommandManager: manager}, nil
	case platform.Brew:
		return &BrewPackageManager{CommandManager: manager}, nil
	default:
		return nil, fmt.Errorf("no package manager available: %w", platform.ErrUnsupportedPlatform)
	}
}
