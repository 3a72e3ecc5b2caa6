package toolspec

import (
	"fmt"
	"sort"

	"github.com/riveterops/riveter/riveter/platform"
)

const fluentBitConfigTemplate = `[SERVICE]
    flush        5
    daemon       off
    log_level    info

[INPUT]
    name         tail
    path         /var/log/syslog
    tag          host.*

[OUTPUT]
    name         s3
    match        *
    region       {{.region}}
    bucket       {{.s3_bucket}}
    total_file_size 50M
`

const ohMyPoshConfigTemplate = `{
  "$schema": "https://raw.githubusercontent.com/JanDeDobbeleer/oh-my-posh/main/themes/schema.json",
  "theme": "{{.theme}}"
}
`

// builtins is the compile-time tool catalog. Custom descriptors come in
// through LoadFile.
var builtins = map[string]*ToolSpec{
	"fluent-bit": {
		Name:        "fluent-bit",
		DisplayName: "Fluent Bit",
		Strategy:    PackageStrategy,
		VersionArgs: []string{"--version"},
		Packages: map[platform.PackageManagerKind]string{
			platform.Apt:  "fluent-bit",
			platform.Dnf:  "fluent-bit",
			platform.Yum:  "fluent-bit",
			platform.Apk:  "fluent-bit",
			platform.Brew: "fluent-bit",
		},
		GitHubRepo: "fluent/fluent-bit",
		Config: &ConfigSpec{
			Path:         "/etc/fluent-bit/fluent-bit.conf",
			Format:       "template",
			Template:     fluentBitConfigTemplate,
			RequiredKeys: []string{"region", "s3_bucket"},
		},
		Service: &ServiceSpec{
			Name:        "fluent-bit",
			Description: "Fluent Bit log processor",
			ExecStart:   "/opt/fluent-bit/bin/fluent-bit -c /etc/fluent-bit/fluent-bit.conf",
			WorkingDir:  "/var/lib/fluent-bit",
		},
		ServiceUser: "fluent-bit",
		DataDir:     "/var/lib/fluent-bit",
	},
	"msk-kafka-cli": {
		Name:          "msk-kafka-cli",
		DisplayName:   "MSK Kafka CLI",
		Strategy:      ArtifactStrategy,
		VersionBinary: "kafka-cli",
		VersionArgs:   []string{"version"},
		GitHubRepo:    "aws/aws-msk-iam-auth",
		Artifact: &ArtifactSpec{
			URLTemplate: "https://github.com/aws/aws-msk-iam-auth/releases/download/v{{.Version}}/kafka-cli-{{.OS}}-{{.Arch}}.tar.gz",
			Format:      "tar.gz",
			BinaryName:  "kafka-cli",
			MinSize:     1 << 20,
		},
		Config: &ConfigSpec{
			Path:         "/etc/msk-kafka-cli/client.properties",
			Format:       "ini",
			RequiredKeys: []string{"region", "broker"},
			Defaults: map[string]string{
				"security.protocol": "SASL_SSL",
				"sasl.mechanism":    "AWS_MSK_IAM",
			},
		},
	},
	"oh-my-posh": {
		Name:        "oh-my-posh",
		DisplayName: "Oh My Posh",
		Strategy:    ArtifactStrategy,
		VersionArgs: []string{"--version"},
		GitHubRepo:  "JanDeDobbeleer/oh-my-posh",
		Artifact: &ArtifactSpec{
			URLTemplate: "https://github.com/JanDeDobbeleer/oh-my-posh/releases/download/v{{.Version}}/posh-{{.OS}}-{{.Arch}}",
			Format:      "binary",
			BinaryName:  "oh-my-posh",
			MinSize:     1 << 20,
		},
		Config: &ConfigSpec{
			Path:     "/etc/oh-my-posh/config.json",
			Format:   "template",
			Template: ohMyPoshConfigTemplate,
			Defaults: map[string]string{"theme": "jandedobbeleer"},
		},
	},
}

// Lookup returns the built-in descriptor for name.
func Lookup(name string) (*ToolSpec, error) {
	spec, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q, see 'riveter list'", name)
	}
	return spec, nil
}

// Names lists the built-in catalog in stable order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
