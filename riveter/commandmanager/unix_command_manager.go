package commandmanager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/riveterops/riveter/common"
)

const defaultDialTimeout = 30 * time.Second

// SSHDialer abstracts ssh.Dial so tests can substitute a fake.
type SSHDialer interface {
	Dial(network, addr string, config *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error)
}

// NetDialer dials real SSH connections.
type NetDialer struct{}

func (NetDialer) Dial(network, addr string, config *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error) {
	config.Timeout = timeout
	return ssh.Dial(network, addr, config)
}

// UnixCommandManager runs commands either on the local host or over SSH,
// depending on Hostname. An empty hostname, "localhost" and "127.0.0.1"
// all mean local execution.
type UnixCommandManager struct {
	Hostname  string
	SSHClient SSHDialer
	common.Credentials
}

func NewLocal() *UnixCommandManager {
	return &UnixCommandManager{Hostname: "localhost"}
}

func NewRemote(hostname string, creds common.Credentials) *UnixCommandManager {
	return &UnixCommandManager{
		Hostname:    hostname,
		SSHClient:   NetDialer{},
		Credentials: creds,
	}
}

func (u *UnixCommandManager) Run(ctx context.Context, config CommandConfig) (CommandResult, error) {
	if u.isLocal() {
		return u.RunLocal(ctx, config)
	}
	return u.RunRemote(ctx, config)
}

func (u *UnixCommandManager) RunLocal(ctx context.Context, config CommandConfig) (CommandResult, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, config.Command, config.Args...)
	if config.Sudo {
		args := append([]string{"-S", "-p", "", config.Command}, config.Args...)
		cmd = exec.CommandContext(ctx, "sudo", args...)
		cmd.Stdin = strings.NewReader(u.SudoPassword + "\n" + config.Stdin)
	} else if config.Stdin != "" {
		cmd.Stdin = strings.NewReader(config.Stdin)
	}
	if len(config.Env) > 0 {
		cmd.Env = append(os.Environ(), config.Env...)
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := CommandResult{
		Command:   config.Command,
		STDOUT:    stdout.String(),
		STDERR:    stderr.String(),
		ExitCode:  getExitCode(err),
		Duration:  time.Since(start),
		Timestamp: start,
	}
	if config.Sudo {
		if sudoErr := detectSudoFailure(result); sudoErr != nil {
			return result, sudoErr
		}
	}
	return result, err
}

func (u *UnixCommandManager) RunRemote(ctx context.Context, config CommandConfig) (CommandResult, error) {
	log.WithFields(log.Fields{"hostname": u.Hostname, "command": config.Command}).Debug("Executing remote command")

	if u.SSHClient == nil {
		return CommandResult{}, errors.New("SSH dialer is not initialized")
	}

	sshConfig, err := u.sshClientConfig()
	if err != nil {
		return CommandResult{}, err
	}

	dialTimeout := defaultDialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		dialTimeout = time.Until(deadline)
	}

	client, err := u.SSHClient.Dial("tcp", u.Hostname+":22", sshConfig, dialTimeout)
	if err != nil {
		return CommandResult{}, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return CommandResult{}, err
	}
	defer session.Close()

	cmdStr := config.Command
	for _, arg := range config.Args {
		// The remote shell must not expand or split tokens like
		// -f=${Version}.
		cmdStr += " " + shellQuote(arg)
	}
	if len(config.Env) > 0 {
		cmdStr = strings.Join(config.Env, " ") + " " + cmdStr
	}
	if config.Sudo {
		cmdStr = "sudo -S -p '' " + cmdStr
		session.Stdin = strings.NewReader(u.SudoPassword + "\n" + config.Stdin)
	} else if config.Stdin != "" {
		session.Stdin = strings.NewReader(config.Stdin)
	}

	var stdout, stderr strings.Builder
	session.Stdout = &stdout
	session.Stderr = &stderr

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmdStr)
	}()

	select {
	case err := <-done:
		result := CommandResult{
			Command:   cmdStr,
			STDOUT:    stdout.String(),
			STDERR:    stderr.String(),
			ExitCode:  getRemoteExitCode(err),
			Duration:  time.Since(start),
			Timestamp: start,
		}
		if config.Sudo {
			if sudoErr := detectSudoFailure(result); sudoErr != nil {
				return result, sudoErr
			}
		}
		return result, err
	case <-ctx.Done():
		return CommandResult{}, ctx.Err()
	}
}

func (u *UnixCommandManager) sshClientConfig() (*ssh.ClientConfig, error) {
	var authMethod ssh.AuthMethod

	if u.Password != "" {
		authMethod = ssh.Password(u.Password)
	} else {
		var keyManager SSHKeyManager
		if u.KeyPassphrase != "" {
			keyManager = FileSSHKeyManager{}
		} else {
			keyManager = AgentSSHKeyManager{}
		}

		keys, err := keyManager.ReadPrivateKeys(u.KeyPassphrase)
		if err != nil {
			return nil, err
		}
		authMethod = ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
			return keys, nil
		})
	}

	return &ssh.ClientConfig{
		User:            u.User,
		Auth:            []ssh.AuthMethod{authMethod},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func (u *UnixCommandManager) isLocal() bool {
	return u.Hostname == "" || u.Hostname == "localhost" || u.Hostname == "127.0.0.1"
}

func detectSudoFailure(result CommandResult) error {
	combined := result.STDOUT + result.STDERR
	if strings.Contains(combined, "incorrect password") ||
		strings.Contains(combined, "is not in the sudoers file") ||
		strings.Contains(combined, "a password is required") {
		return fmt.Errorf("sudo: %s: %w", strings.TrimSpace(result.STDERR), ErrPermissionDenied)
	}
	return nil
}

func getExitCode(err error) int {
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
				return status.ExitStatus()
			}
		}
		return 1
	}
	return 0
}

func getRemoteExitCode(err error) int {
	if err != nil {
		var exitError *ssh.ExitError
		if errors.As(err, &exitError) {
			return exitError.ExitStatus()
		}
		return 1
	}
	return 0
}
