// Package filemanager performs privileged file operations on the target
// host through the CommandManager, so placement works the same for local
// and SSH-reached hosts.
package filemanager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	cm "github.com/riveterops/riveter/riveter/commandmanager"
)

type FileManager interface {
	WriteFile(ctx context.Context, path string, content []byte, mode string) error
	InstallBinary(ctx context.Context, src, dst string) error
	MkdirAll(ctx context.Context, path string) error
	Chown(ctx context.Context, path, owner string) error
	Remove(ctx context.Context, path string) error
	RemoveAll(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

type UnixFileManager struct {
	CommandManager cm.CommandManager
}

func NewUnixFileManager(manager cm.CommandManager) *UnixFileManager {
	return &UnixFileManager{CommandManager: manager}
}

func handleResult(result cm.CommandResult, err error) error {
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return errors.New(strings.TrimSpace(result.STDERR))
	}
	return nil
}

// WriteFile streams content through tee so the write works over SSH and
// through sudo alike, then fixes the mode.
func (ufm *UnixFileManager) WriteFile(ctx context.Context, path string, content []byte, mode string) error {
	result, err := ufm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "tee",
		Args:    []string{path},
		Sudo:    true,
		Stdin:   string(content),
	})
	if err := handleResult(result, err); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if mode == "" {
		return nil
	}
	result, err = ufm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "chmod",
		Args:    []string{mode, path},
		Sudo:    true,
	})
	if err := handleResult(result, err); err != nil {
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	return nil
}

// InstallBinary moves a staged file into place and marks it executable.
func (ufm *UnixFileManager) InstallBinary(ctx context.Context, src, dst string) error {
	result, err := ufm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "mv",
		Args:    []string{src, dst},
		Sudo:    true,
	})
	if err := handleResult(result, err); err != nil {
		return fmt.Errorf("moving %s to %s: %w", src, dst, err)
	}
	result, err = ufm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "chmod",
		Args:    []string{"0755", dst},
		Sudo:    true,
	})
	if err := handleResult(result, err); err != nil {
		return fmt.Errorf("marking %s executable: %w", dst, err)
	}
	return nil
}

func (ufm *UnixFileManager) MkdirAll(ctx context.Context, path string) error {
	result, err := ufm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "mkdir",
		Args:    []string{"-p", path},
		Sudo:    true,
	})
	if err := handleResult(result, err); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

func (ufm *UnixFileManager) Chown(ctx context.Context, path, owner string) error {
	result, err := ufm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "chown",
		Args:    []string{"-R", owner + ":" + owner, path},
		Sudo:    true,
	})
	if err := handleResult(result, err); err != nil {
		return fmt.Errorf("chowning %s to %s: %w", path, owner, err)
	}
	return nil
}

func (ufm *UnixFileManager) Remove(ctx context.Context, path string) error {
	result, err := ufm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "rm",
		Args:    []string{"-f", path},
		Sudo:    true,
	})
	if err := handleResult(result, err); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

func (ufm *UnixFileManager) RemoveAll(ctx context.Context, path string) error {
	result, err := ufm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "rm",
		Args:    []string{"-rf", path},
		Sudo:    true,
	})
	if err := handleResult(result, err); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

func (ufm *UnixFileManager) Exists(ctx context.Context, path string) (bool, error) {
	result, err := ufm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "test",
		Args:    []string{"-e", path},
	})
	if err != nil && result.ExitCode == 0 {
		return false, err
	}
	return result.ExitCode == 0, nil
}
