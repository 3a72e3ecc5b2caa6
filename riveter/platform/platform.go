// Package platform identifies the target host: OS family, usable package
// manager and CPU architecture. Detection runs through the CommandManager
// so it works identically for local and SSH-reached hosts.
package platform

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"

	cm "github.com/riveterops/riveter/riveter/commandmanager"
)

// ErrUnsupportedPlatform is returned when no recognized OS or package
// manager is found. It is fatal and raised before any network call.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

type OSFamily string

const (
	Linux   OSFamily = "linux"
	Darwin  OSFamily = "darwin"
	Windows OSFamily = "windows"
)

type PackageManagerKind string

const (
	Apt  PackageManagerKind = "apt"
	Dnf  PackageManagerKind = "dnf"
	Yum  PackageManagerKind = "yum"
	Apk  PackageManagerKind = "apk"
	Brew PackageManagerKind = "brew"
	// NoPackageManager means only the release-artifact strategy is usable.
	NoPackageManager PackageManagerKind = ""
)

type Arch string

const (
	AMD64 Arch = "amd64"
	ARM64 Arch = "arm64"
)

// Platform is the detected host triple.
type Platform struct {
	OSFamily       OSFamily
	PackageManager PackageManagerKind
	Arch           Arch
	// Distro is the os-release ID (ubuntu, amzn, alpine, ...); empty on
	// darwin and when /etc/os-release is unreadable.
	Distro string
}

// managerProbes is the explicit precedence order for Linux package
// managers. Probing stops at the first hit; apt wins over dnf, dnf over
// yum, yum over apk.
var managerProbes = []struct {
	kind   PackageManagerKind
	binary string
}{
	{Apt, "apt-get"},
	{Dnf, "dnf"},
	{Yum, "yum"},
	{Apk, "apk"},
}

type Detector interface {
	Detect(ctx context.Context) (Platform, error)
}

// HostDetector probes the host reachable through CommandManager.
type HostDetector struct {
	CommandManager cm.CommandManager
	// Local marks the command manager as targeting the invoking machine,
	// letting runtime.GOOS short-circuit the uname probe.
	Local bool
}

func NewHostDetector(manager cm.CommandManager, local bool) *HostDetector {
	return &HostDetector{CommandManager: manager, Local: local}
}

func (d *HostDetector) Detect(ctx context.Context) (Platform, error) {
	family, err := d.osFamily(ctx)
	if err != nil {
		return Platform{}, err
	}

	arch, err := d.arch(ctx, family)
	if err != nil {
		return Platform{}, err
	}

	p := Platform{OSFamily: family, Arch: arch}

	switch family {
	case Darwin:
		if d.binaryOnPath(ctx, "brew") {
			p.PackageManager = Brew
		}
	case Linux:
		p.Distro = d.osReleaseID(ctx)
		for _, probe := range managerProbes {
			if d.binaryOnPath(ctx, probe.binary) {
				p.PackageManager = probe.kind
				break
			}
		}
		if p.PackageManager == NoPackageManager {
			return Platform{}, fmt.Errorf("no recognized package manager on PATH: %w", ErrUnsupportedPlatform)
		}
	case Windows:
		// Artifact installs only.
	}

	log.WithFields(log.Fields{
		"os":     p.OSFamily,
		"distro": p.Distro,
		"pkg":    p.PackageManager,
		"arch":   p.Arch,
	}).Debug("Detected platform")
	return p, nil
}

// osReleaseID pulls ID (or the first ID_LIKE token) out of
// /etc/os-release. Informational only; the package manager probe below
// is what actually decides the install strategy.
func (d *HostDetector) osReleaseID(ctx context.Context) string {
	result, err := d.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "cat",
		Args:    []string{"/etc/os-release"},
	})
	if err != nil || result.ExitCode != 0 {
		return ""
	}
	return parseOSReleaseID(result.STDOUT)
}

func parseOSReleaseID(content string) string {
	var idLike string
	for _, line := range strings.Split(content, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			continue
		}
		value = strings.Trim(value, `"`)
		switch key {
		case "ID":
			return value
		case "ID_LIKE":
			if fields := strings.Fields(value); len(fields) > 0 {
				idLike = fields[0]
			}
		}
	}
	return idLike
}

func (d *HostDetector) osFamily(ctx context.Context) (OSFamily, error) {
	if d.Local && runtime.GOOS == "windows" {
		return Windows, nil
	}

	result, err := d.CommandManager.Run(ctx, cm.CommandConfig{Command: "uname", Args: []string{"-s"}})
	if err != nil {
		return "", fmt.Errorf("probing OS with uname: %w", err)
	}

	switch strings.TrimSpace(result.STDOUT) {
	case "Linux":
		return Linux, nil
	case "Darwin":
		return Darwin, nil
	default:
		return "", fmt.Errorf("uname reported %q: %w", strings.TrimSpace(result.STDOUT), ErrUnsupportedPlatform)
	}
}

func (d *HostDetector) arch(ctx context.Context, family OSFamily) (Arch, error) {
	if d.Local {
		return normalizeArch(runtime.GOARCH)
	}
	if family == Windows {
		return AMD64, nil
	}

	result, err := d.CommandManager.Run(ctx, cm.CommandConfig{Command: "uname", Args: []string{"-m"}})
	if err != nil {
		return "", fmt.Errorf("probing architecture with uname: %w", err)
	}
	return normalizeArch(strings.TrimSpace(result.STDOUT))
}

func (d *HostDetector) binaryOnPath(ctx context.Context, binary string) bool {
	result, err := d.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "sh",
		Args:    []string{"-c", "command -v " + binary},
	})
	return err == nil && result.ExitCode == 0 && strings.TrimSpace(result.STDOUT) != ""
}

func normalizeArch(raw string) (Arch, error) {
	switch raw {
	case "x86_64", "amd64":
		return AMD64, nil
	case "aarch64", "arm64":
		return ARM64, nil
	default:
		return "", fmt.Errorf("architecture %q: %w", raw, ErrUnsupportedPlatform)
	}
}
