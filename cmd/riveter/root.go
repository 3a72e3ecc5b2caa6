package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/riveterops/riveter/common"
	"github.com/riveterops/riveter/logger"
	cm "github.com/riveterops/riveter/riveter/commandmanager"
	"github.com/riveterops/riveter/riveter/orchestrator"
	"github.com/riveterops/riveter/riveter/platform"
	"github.com/riveterops/riveter/riveter/toolspec"
	"github.com/riveterops/riveter/riveter/versions"
)

const envPrefix = "RIVETER_"

var (
	logLevel    string
	logFile     string
	hostname    string
	sshUser     string
	askSudoPass bool
	specFile    string
)

var rootCmd = &cobra.Command{
	Use:           "riveter",
	Short:         "Install, configure and manage infrastructure tools",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setFlagsFromEnvVars(cmd.Root())
		return logger.Setup(logLevel, logFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also append diagnostics to this file")
	rootCmd.PersistentFlags().StringVar(&hostname, "host", "", "Manage a remote host over SSH instead of this machine")
	rootCmd.PersistentFlags().StringVar(&sshUser, "ssh-user", "", "SSH user for --host")
	rootCmd.PersistentFlags().BoolVar(&askSudoPass, "ask-sudo-pass", false, "Prompt for the sudo password")
	rootCmd.PersistentFlags().StringVarP(&specFile, "spec-file", "f", "", "Load the tool descriptor from a YAML file")

	rootCmd.AddCommand(installCmd, uninstallCmd, startCmd, stopCmd, statusCmd, listCmd)
}

// setFlagsFromEnvVars applies RIVETER_* environment variables as flag
// defaults; explicit flags win.
func setFlagsFromEnvVars(cmd *cobra.Command) {
	apply := func(flags *pflag.FlagSet) {
		flags.VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				return
			}
			envVar := envPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if value, present := os.LookupEnv(envVar); present {
				if err := flags.Set(f.Name, value); err != nil {
					log.WithFields(log.Fields{"flag": f.Name, "env": envVar, "error": err}).Warn("Ignoring environment override")
				}
			}
		})
	}
	apply(cmd.PersistentFlags())
	for _, sub := range cmd.Commands() {
		apply(sub.Flags())
	}
}

// newOrchestrator builds the command manager for the target host, detects
// the platform and wires the component set.
func newOrchestrator(cmd *cobra.Command) (*orchestrator.Orchestrator, error) {
	manager, err := newCommandManager()
	if err != nil {
		return nil, err
	}

	local := hostname == ""
	detector := platform.NewHostDetector(manager, local)
	plat, err := detector.Detect(cmd.Context())
	if err != nil {
		return nil, err
	}

	return orchestrator.NewForPlatform(plat, manager, versions.NewGitHubReleases()), nil
}

func newCommandManager() (cm.CommandManager, error) {
	creds := common.Credentials{User: sshUser}

	if askSudoPass {
		fmt.Fprint(os.Stderr, "sudo password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("reading sudo password: %w", err)
		}
		creds.SudoPassword = string(password)
	}

	if hostname == "" {
		local := cm.NewLocal()
		local.Credentials = creds
		return local, nil
	}
	return cm.NewRemote(hostname, creds), nil
}

// resolveSpec picks the tool descriptor: a YAML file when -f is given,
// otherwise the built-in catalog entry for the named tool.
func resolveSpec(args []string) (*toolspec.ToolSpec, error) {
	if specFile != "" {
		return toolspec.LoadFile(specFile)
	}
	if len(args) < 1 {
		return nil, fmt.Errorf("tool name required (or use --spec-file)")
	}
	return toolspec.Lookup(args[0])
}
