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

const launchDaemonDir = "/Library/LaunchDaemons"

const launchdPlistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{.Name}}</string>
	<key>ProgramArguments</key>
	<array>
{{- range .Arguments}}
		<string>{{.}}</string>
{{- end}}
	</array>
{{- if .WorkingDir}}
	<key>WorkingDirectory</key>
	<string>{{.WorkingDir}}</string>
{{- end}}
{{- if .User}}
	<key>UserName</key>
	<string>{{.User}}</string>
{{- end}}
{{- if .EnvVars}}
	<key>EnvironmentVariables</key>
	<dict>
{{- range $key, $value := .EnvVars}}
		<key>{{$key}}</key>
		<string>{{$value}}</string>
{{- end}}
	</dict>
{{- end}}
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>ThrottleInterval</key>
	<integer>10</integer>
</dict>
</plist>
`

type plistData struct {
	Name       string
	Arguments  []string
	WorkingDir string
	User       string
	EnvVars    map[string]string
}

type DarwinServiceManager struct {
	CommandManager cm.CommandManager
	Files          filemanager.FileManager
}

func (dsm *DarwinServiceManager) UnitPath(name string) string {
	return fmt.Sprintf("%s/%s.plist", launchDaemonDir, name)
}

func (dsm *DarwinServiceManager) Register(ctx context.Context, svc *toolspec.ServiceSpec, user string) (string, error) {
	tmpl, err := template.New("plist").Parse(launchdPlistTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing launchd plist template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, plistData{
		Name:       svc.Name,
		Arguments:  strings.Fields(svc.ExecStart),
		WorkingDir: svc.WorkingDir,
		User:       user,
		EnvVars:    svc.EnvVars,
	})
	if err != nil {
		return "", fmt.Errorf("rendering launchd plist for %s: %w", svc.Name, err)
	}

	unitPath := dsm.UnitPath(svc.Name)
	if err := dsm.Files.WriteFile(ctx, unitPath, buf.Bytes(), "0644"); err != nil {
		return "", err
	}

	if err := dsm.launchctl(ctx, "bootstrap", "system", unitPath); err != nil {
		return "", err
	}

	log.WithFields(log.Fields{"service": svc.Name, "unit": unitPath}).Info("Registered launchd daemon")
	return unitPath, nil
}

func (dsm *DarwinServiceManager) Unregister(ctx context.Context, name string) error {
	if err := dsm.launchctl(ctx, "bootout", "system", dsm.UnitPath(name)); err != nil {
		log.WithFields(log.Fields{"service": name, "error": err}).Debug("Bootout failed during unregister")
	}
	return dsm.Files.Remove(ctx, dsm.UnitPath(name))
}

func (dsm *DarwinServiceManager) Start(ctx context.Context, name string) error {
	if err := dsm.launchctl(ctx, "kickstart", "system/"+name); err != nil {
		return &StartError{Service: name, Status: dsm.statusOutput(ctx, name), Err: err}
	}
	return nil
}

func (dsm *DarwinServiceManager) Stop(ctx context.Context, name string) error {
	return dsm.launchctl(ctx, "kill", "SIGTERM", "system/"+name)
}

func (dsm *DarwinServiceManager) Status(ctx context.Context, name string) (ServiceState, error) {
	exists, err := dsm.Files.Exists(ctx, dsm.UnitPath(name))
	if err != nil {
		return "", err
	}
	if !exists {
		return NotInstalled, nil
	}

	result, err := dsm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "launchctl",
		Args:    []string{"print", "system/" + name},
		Sudo:    true,
	})
	if err != nil || result.ExitCode != 0 {
		return Stopped, nil
	}
	if strings.Contains(result.STDOUT, "state = running") {
		return Running, nil
	}
	return Stopped, nil
}

func (dsm *DarwinServiceManager) launchctl(ctx context.Context, args ...string) error {
	result, err := dsm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "launchctl",
		Args:    args,
		Sudo:    true,
	})
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("launchctl %s: %s", strings.Join(args, " "), strings.TrimSpace(result.STDERR))
	}
	return nil
}

func (dsm *DarwinServiceManager) statusOutput(ctx context.Context, name string) string {
	result, _ := dsm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "launchctl",
		Args:    []string{"print", "system/" + name},
		Sudo:    true,
	})
	return strings.TrimSpace(result.STDOUT + result.STDERR)
}
