package packagemanager

import (
	"context"
	"strings"

	cm "github.com/riveterops/riveter/riveter/commandmanager"
)

type ApkPackageManager struct {
	CommandManager cm.CommandManager
}

func (apm *ApkPackageManager) Install(ctx context.Context, pkg string) error {
	_, err := apm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "apk",
		Sudo:    true,
		Args:    []string{"add", "--no-cache", pkg},
	})
	return err
}

func (apm *ApkPackageManager) Remove(ctx context.Context, pkg string) error {
	_, err := apm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "apk",
		Sudo:    true,
		Args:    []string{"del", pkg},
	})
	return err
}

func (apm *ApkPackageManager) InstalledVersion(ctx context.Context, pkg string) (string, error) {
	result, err := apm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "apk",
		Args:    []string{"info", "-v", pkg},
	})
	if err != nil || result.ExitCode != 0 {
		return "", nil
	}
	// apk info -v prints "pkg-1.2.3-r0" lines.
	for _, line := range strings.Split(result.STDOUT, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, pkg+"-") {
			return strings.TrimPrefix(line, pkg+"-"), nil
		}
	}
	return "", nil
}
