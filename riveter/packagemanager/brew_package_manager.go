package packagemanager

import (
	"context"
	"strings"

	cm "github.com/riveterops/riveter/riveter/commandmanager"
)

type BrewPackageManager struct {
	CommandManager cm.CommandManager
}

func (bpm *BrewPackageManager) Install(ctx context.Context, pkg string) error {
	// brew refuses to run under sudo.
	_, err := bpm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "brew",
		Args:    []string{"install", pkg},
	})
	return err
}

func (bpm *BrewPackageManager) Remove(ctx context.Context, pkg string) error {
	_, err := bpm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "brew",
		Args:    []string{"uninstall", pkg},
	})
	return err
}

func (bpm *BrewPackageManager) InstalledVersion(ctx context.Context, pkg string) (string, error) {
	result, err := bpm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "brew",
		Args:    []string{"list", "--versions", pkg},
	})
	if err != nil || result.ExitCode != 0 {
		return "", nil
	}
	fields := strings.Fields(result.STDOUT)
	if len(fields) < 2 {
		return "", nil
	}
	return fields[len(fields)-1], nil
}
