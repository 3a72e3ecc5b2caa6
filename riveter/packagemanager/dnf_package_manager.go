package packagemanager

import (
	"context"
	"strings"

	cm "github.com/riveterops/riveter/riveter/commandmanager"
)

type DnfPackageManager struct {
	CommandManager cm.CommandManager
}

func (dpm *DnfPackageManager) Install(ctx context.Context, pkg string) error {
	_, err := dpm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "dnf",
		Sudo:    true,
		Args:    []string{"install", "-y", pkg},
	})
	return err
}

func (dpm *DnfPackageManager) Remove(ctx context.Context, pkg string) error {
	_, err := dpm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "dnf",
		Sudo:    true,
		Args:    []string{"remove", "-y", pkg},
	})
	return err
}

func (dpm *DnfPackageManager) InstalledVersion(ctx context.Context, pkg string) (string, error) {
	result, err := dpm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "rpm",
		Args:    []string{"-q", "--qf", "%{VERSION}", pkg},
	})
	if err != nil || result.ExitCode != 0 {
		return "", nil
	}
	return strings.TrimSpace(result.STDOUT), nil
}
