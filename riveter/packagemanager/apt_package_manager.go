package packagemanager

import (
	"context"
	"strings"

	cm "github.com/riveterops/riveter/riveter/commandmanager"
)

type AptPackageManager struct {
	CommandManager cm.CommandManager
}

func (apm *AptPackageManager) Install(ctx context.Context, pkg string) error {
	if _, err := apm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "apt-get",
		Sudo:    true,
		Env:     []string{"DEBIAN_FRONTEND=noninteractive"},
		Args:    []string{"update"},
	}); err != nil {
		return err
	}

	_, err := apm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "apt-get",
		Sudo:    true,
		Env:     []string{"DEBIAN_FRONTEND=noninteractive"},
		Args:    []string{"install", "-y", "-o", "Dpkg::Options::=--force-confdef", "-o", "Dpkg::Options::=--force-confold", pkg},
	})
	return err
}

func (apm *AptPackageManager) Remove(ctx context.Context, pkg string) error {
	_, err := apm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "apt-get",
		Sudo:    true,
		Args:    []string{"remove", "-y", pkg},
	})
	return err
}

func (apm *AptPackageManager) InstalledVersion(ctx context.Context, pkg string) (string, error) {
	result, err := apm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "dpkg-query",
		Args:    []string{"-W", "-f=${Version}", pkg},
	})
	if err != nil || result.ExitCode != 0 {
		// dpkg-query exits 1 for unknown packages.
		return "", nil
	}
	return strings.TrimSpace(result.STDOUT), nil
}
