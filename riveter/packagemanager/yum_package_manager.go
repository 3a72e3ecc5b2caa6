package packagemanager

import (
	"context"
	"strings"

	cm "github.com/riveterops/riveter/riveter/commandmanager"
)

type YumPackageManager struct {
	CommandManager cm.CommandManager
}

func (ypm *YumPackageManager) Install(ctx context.Context, pkg string) error {
	_, err := ypm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "yum",
		Sudo:    true,
		Args:    []string{"install", "-y", pkg},
	})
	return err
}

func (ypm *YumPackageManager) Remove(ctx context.Context, pkg string) error {
	_, err := ypm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "yum",
		Sudo:    true,
		Args:    []string{"remove", "-y", pkg},
	})
	return err
}

func (ypm *YumPackageManager) InstalledVersion(ctx context.Context, pkg string) (string, error) {
	result, err := ypm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "rpm",
		Args:    []string{"-q", "--qf", "%{VERSION}", pkg},
	})
	if err != nil || result.ExitCode != 0 {
		return "", nil
	}
	return strings.TrimSpace(result.STDOUT), nil
}
