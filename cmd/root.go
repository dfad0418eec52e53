// Package cmd implements the CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deadpackets/pwnbox-cli/internal/banner"
	"github.com/deadpackets/pwnbox-cli/internal/config"
	"github.com/deadpackets/pwnbox-cli/internal/notification"
	"github.com/deadpackets/pwnbox-cli/internal/version"
)

var (
	cfgFile       string
	verbose       bool
	noBanner      bool
	noUpdate      bool
	sshTimeout    int
	cfg           *config.Config
	errConfigLoad error
)

var rootCmd = &cobra.Command{
	Use:   "pwnbox",
	Short: "Launch and manage PwnBox containers",
	Long: `PwnBox CLI deploys, customizes and manages a containerized pentesting
environment on your local machine.

It checks whether a newer PwnBox image is available, translates your
configuration into a container, waits for its SSH service to come up and
drops you straight into a shell.`,
	Version:       version.GetFullVersion(),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if !noBanner {
			banner.Print(os.Stdout, version.GetVersion())
		}

		skipConfig := cmd.Name() == "generate" || cmd.Name() == "help" ||
			cmd.Name() == "version" || cmd.Name() == "completion"
		if !skipConfig {
			if cfgFile == "" {
				if path, created, err := config.EnsureDefault(); err == nil && created {
					fmt.Println(color.CyanString("=> Creating default config at %s", path))
				}
			}

			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				// Commands fail fast with requireConfig() in their RunE
				// handlers; the error is stored, not thrown, so help and
				// version keep working.
				errConfigLoad = err
				if verbose {
					fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
				}
			}

			if verbose && cfg != nil && cfg.ConfigFilePath != "" {
				fmt.Fprintf(os.Stderr, "Loaded configuration from: %s\n", cfg.ConfigFilePath)
			}
		}

		if !noUpdate {
			checkForNewRelease()
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("=> Error: %v", err))
		os.Exit(1)
	}
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to a PwnBox config file (default: ~/.pwnbox/pwnbox.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&noBanner, "no-banner", "b", false, "disable printing the banner")
	rootCmd.PersistentFlags().BoolVarP(&noUpdate, "no-update", "n", false, "disable the automatic check for newer PwnBox versions")
	rootCmd.PersistentFlags().IntVarP(&sshTimeout, "timeout", "t", 0, "timeout in seconds for waiting for SSH to be available")
}

// requireConfig fails fast when the configuration did not load.
func requireConfig() error {
	if errConfigLoad != nil {
		return fmt.Errorf("cannot read or parse config file: %w", errConfigLoad)
	}
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}
	return nil
}

// signalContext returns a context cancelled on interrupt so a CTRL+C during
// provisioning routes through the orchestrator's cleanup path.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// checkForNewRelease prints an upgrade hint when a newer CLI release is
// published. Failures are a warning only.
func checkForNewRelease() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	latest, newer, err := version.CheckForUpdate(ctx)
	if err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Warning: could not check for the latest release: %v\n", err)
		}
		return
	}
	if !newer {
		return
	}

	fmt.Println(color.CyanString("=> A new version of PwnBox CLI (%s) has been released. Upgrade to get the latest features and fixes.", latest))

	if cfg != nil {
		if notifier, nerr := notification.NewNotifier(cfg.Notification.Enabled, cfg.Notification.ShoutrrURL); nerr == nil {
			if err := notifier.UpdateAvailable(latest); err != nil && verbose {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
		}
	}
}
