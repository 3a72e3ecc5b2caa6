package servicemanager

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	log "github.com/sirupsen/logrus"

	cm "github.com/riveterops/riveter/riveter/commandmanager"
	"github.com/riveterops/riveter/riveter/filemanager"
	"github.com/riveterops/riveter/riveter/toolspec"
)

const systemdUnitDir = "/etc/systemd/system"

// Restart=always with a short pause; failed starts are the unit's
// problem to retry, not the orchestrator's.
const systemdUnitTemplate = `[Unit]
Description={{.Description}}
After=network.target

[Service]
Type=simple
ExecStart={{.ExecStart}}
{{- if .WorkingDir}}
WorkingDirectory={{.WorkingDir}}
{{- end}}
{{- if .User}}
User={{.User}}
{{- end}}
{{- range $key, $value := .EnvVars}}
Environment={{$key}}={{$value}}
{{- end}}
Restart=always
RestartSec=5

[Install]
WantedBy=multi-user.target
`

type unitData struct {
	Description string
	ExecStart   string
	WorkingDir  string
	User        string
	EnvVars     map[string]string
}

type LinuxServiceManager struct {
	CommandManager cm.CommandManager
	Files          filemanager.FileManager
}

func (lsm *LinuxServiceManager) UnitPath(name string) string {
	return fmt.Sprintf("%s/%s.service", systemdUnitDir, name)
}

func (lsm *LinuxServiceManager) Register(ctx context.Context, svc *toolspec.ServiceSpec, user string) (string, error) {
	tmpl, err := template.New("unit").Parse(systemdUnitTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing systemd unit template: %w", err)
	}

	description := svc.Description
	if description == "" {
		description = svc.Name
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, unitData{
		Description: description,
		ExecStart:   svc.ExecStart,
		WorkingDir:  svc.WorkingDir,
		User:        user,
		EnvVars:     svc.EnvVars,
	})
	if err != nil {
		return "", fmt.Errorf("rendering systemd unit for %s: %w", svc.Name, err)
	}

	unitPath := lsm.UnitPath(svc.Name)
	if err := lsm.Files.WriteFile(ctx, unitPath, buf.Bytes(), "0644"); err != nil {
		return "", err
	}

	if err := lsm.systemctl(ctx, "daemon-reload"); err != nil {
		return "", err
	}
	if err := lsm.systemctl(ctx, "enable", svc.Name); err != nil {
		return "", err
	}

	log.WithFields(log.Fields{"service": svc.Name, "unit": unitPath}).Info("Registered systemd unit")
	return unitPath, nil
}

func (lsm *LinuxServiceManager) Unregister(ctx context.Context, name string) error {
	// disable may fail when the unit is already gone; that is fine.
	if err := lsm.systemctl(ctx, "disable", name); err != nil {
		log.WithFields(log.Fields{"service": name, "error": err}).Debug("Disable failed during unregister")
	}
	if err := lsm.Files.Remove(ctx, lsm.UnitPath(name)); err != nil {
		return err
	}
	return lsm.systemctl(ctx, "daemon-reload")
}

func (lsm *LinuxServiceManager) Start(ctx context.Context, name string) error {
	if err := lsm.systemctl(ctx, "start", name); err != nil {
		return &StartError{Service: name, Status: lsm.statusOutput(ctx, name), Err: err}
	}
	return nil
}

func (lsm *LinuxServiceManager) Stop(ctx context.Context, name string) error {
	return lsm.systemctl(ctx, "stop", name)
}

func (lsm *LinuxServiceManager) Status(ctx context.Context, name string) (ServiceState, error) {
	exists, err := lsm.Files.Exists(ctx, lsm.UnitPath(name))
	if err != nil {
		return "", err
	}
	if !exists {
		return NotInstalled, nil
	}

	result, err := lsm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "systemctl",
		Args:    []string{"is-active", name},
	})
	// is-active exits nonzero for anything but "active"; the word on
	// stdout is still what we want.
	switch strings.TrimSpace(result.STDOUT) {
	case "active", "activating":
		return Running, nil
	case "failed":
		return Failed, nil
	case "inactive", "deactivating":
		return Stopped, nil
	default:
		if err != nil {
			return "", err
		}
		return Stopped, nil
	}
}

func (lsm *LinuxServiceManager) systemctl(ctx context.Context, args ...string) error {
	result, err := lsm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "systemctl",
		Args:    args,
		Sudo:    true,
	})
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("systemctl %s: %s", strings.Join(args, " "), strings.TrimSpace(result.STDERR))
	}
	return nil
}

func (lsm *LinuxServiceManager) statusOutput(ctx context.Context, name string) string {
	result, _ := lsm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "systemctl",
		Args:    []string{"status", "--no-pager", "-n", "20", name},
	})
	return strings.TrimSpace(result.STDOUT + result.STDERR)
}
