package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deadpackets/pwnbox-cli/internal/docker"
	apperrors "github.com/deadpackets/pwnbox-cli/internal/errors"
	"github.com/deadpackets/pwnbox-cli/internal/image"
	"github.com/deadpackets/pwnbox-cli/internal/notification"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download the latest PwnBox image",
	Long: `Pull downloads the configured PwnBox image when its content digest
differs from what the registry holds.

Unlike the passive freshness check during up, an explicit pull treats a
registry failure as fatal rather than falling back to the cached image.`,
	Example: `  # Update to the latest image
  pwnbox pull`,
	RunE: runPull,
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(pullCmd)
}

func runPull(_ *cobra.Command, _ []string) error {
	if err := requireConfig(); err != nil {
		return err
	}

	p := cfg.Profile()
	ref := p.ImageRef()

	engine, err := docker.NewEngine(cfg.Docker.SocketPath)
	if err != nil {
		return fmt.Errorf("could not connect to Docker, check if you have Docker installed and running: %w", err)
	}
	defer engine.Close() //nolint:errcheck // Close error not actionable in defer context

	ctx, cancel := signalContext()
	defer cancel()

	if err := engine.Ping(ctx); err != nil {
		return fmt.Errorf("could not connect to Docker, check if you have Docker installed and running: %w", err)
	}

	fmt.Println(color.BlueString("=> Checking for local PwnBox image..."))
	exists, err := engine.ImageExists(ctx, ref)
	if err != nil {
		return err
	}

	if exists {
		local, lerr := engine.LocalDigest(ctx, ref)
		if lerr != nil {
			var notFound *apperrors.NotFoundError
			if !errors.As(lerr, &notFound) {
				return lerr
			}
			// No repository digest to compare against; re-pull.
		} else {
			// An explicit pull surfaces registry failures fatally.
			remote, rerr := engine.RemoteDigest(ctx, ref)
			if rerr != nil {
				return rerr
			}
			if local == remote {
				fmt.Println(color.GreenString("=> Already updated to latest version!"))
				return nil
			}
			fmt.Println(color.BlueString("=> A newer version of PwnBox has been found!"))
		}
	} else {
		fmt.Println(color.YellowString("=> PwnBox image not found locally, pulling image..."))
	}

	resolver := image.NewResolver(engine, os.Stdout)
	if err := resolver.Pull(ctx, ref); err != nil {
		return err
	}

	fmt.Println(color.GreenString("=> PwnBox image pulled/updated successfully!"))

	if notifier, nerr := notification.NewNotifier(cfg.Notification.Enabled, cfg.Notification.ShoutrrURL); nerr == nil {
		if err := notifier.PullCompleted(ref); err != nil && verbose {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	return nil
}
