// Package usermanager creates and removes the dedicated system users
// daemons run as.
package usermanager

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	cm "github.com/riveterops/riveter/riveter/commandmanager"
)

// User represents an individual user account on the system.
type User struct {
	Username string
	UID      int
	GID      int
	Comment  string
	HomeDir  string
	Shell    string
}

type UserManager interface {
	Get(ctx context.Context, username string) (User, bool, error)
	// EnsureServiceUser creates a no-login system user when absent.
	EnsureServiceUser(ctx context.Context, username, homeDir string) error
	Delete(ctx context.Context, username string) error
}

type LinuxUserManager struct {
	CommandManager cm.CommandManager
}

func NewLinuxUserManager(manager cm.CommandManager) *LinuxUserManager {
	return &LinuxUserManager{CommandManager: manager}
}

func (l *LinuxUserManager) Get(ctx context.Context, username string) (User, bool, error) {
	result, err := l.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "getent",
		Args:    []string{"passwd", username},
	})
	if err != nil || result.ExitCode != 0 {
		// getent exits 2 when the key is unknown.
		return User{}, false, nil
	}

	parts := strings.Split(strings.TrimSpace(result.STDOUT), ":")
	if len(parts) < 7 {
		return User{}, false, fmt.Errorf("unexpected getent output for %s", username)
	}

	uid, _ := strconv.Atoi(parts[2])
	gid, _ := strconv.Atoi(parts[3])
	return User{
		Username: parts[0],
		UID:      uid,
		GID:      gid,
		Comment:  parts[4],
		HomeDir:  parts[5],
		Shell:    parts[6],
	}, true, nil
}

func (l *LinuxUserManager) EnsureServiceUser(ctx context.Context, username, homeDir string) error {
	_, exists, err := l.Get(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	args := []string{"--system", "--shell", "/usr/sbin/nologin", "--no-create-home"}
	if homeDir != "" {
		args = append(args, "--home-dir", homeDir)
	}
	args = append(args, username)

	_, err = l.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "useradd",
		Args:    args,
		Sudo:    true,
	})
	if err != nil {
		return fmt.Errorf("creating service user %s: %w", username, err)
	}
	log.WithFields(log.Fields{"user": username}).Info("Created service user")
	return nil
}

func (l *LinuxUserManager) Delete(ctx context.Context, username string) error {
	_, exists, err := l.Get(ctx, username)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	_, err = l.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "userdel",
		Args:    []string{username},
		Sudo:    true,
	})
	if err != nil {
		return fmt.Errorf("deleting service user %s: %w", username, err)
	}
	return nil
}

// DarwinUserManager covers macOS hosts, where service users are rare;
// sysadminctl is used only when a spec insists on one.
type DarwinUserManager struct {
	CommandManager cm.CommandManager
}

func NewDarwinUserManager(manager cm.CommandManager) *DarwinUserManager {
	return &DarwinUserManager{CommandManager: manager}
}

func (d *DarwinUserManager) Get(ctx context.Context, username string) (User, bool, error) {
	result, err := d.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "id",
		Args:    []string{"-u", username},
	})
	if err != nil || result.ExitCode != 0 {
		return User{}, false, nil
	}
	uid, _ := strconv.Atoi(strings.TrimSpace(result.STDOUT))
	return User{Username: username, UID: uid}, true, nil
}

func (d *DarwinUserManager) EnsureServiceUser(ctx context.Context, username, homeDir string) error {
	_, exists, err := d.Get(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = d.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "sysadminctl",
		Args:    []string{"-addUser", username, "-roleAccount"},
		Sudo:    true,
	})
	if err != nil {
		return fmt.Errorf("creating service user %s: %w", username, err)
	}
	return nil
}

func (d *DarwinUserManager) Delete(ctx context.Context, username string) error {
	_, exists, err := d.Get(ctx, username)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	_, err = d.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "sysadminctl",
		Args:    []string{"-deleteUser", username},
		Sudo:    true,
	})
	if err != nil {
		return fmt.Errorf("deleting service user %s: %w", username, err)
	}
	return nil
}
