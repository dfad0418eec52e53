package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deadpackets/pwnbox-cli/internal/docker"
	"github.com/deadpackets/pwnbox-cli/internal/lifecycle"
)

var downRemove bool

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop the PwnBox container",
	Long: `Down stops the PwnBox container and revokes any X11 authorization
granted on the way up.

Stopping a container that does not exist or is already stopped is a no-op
success, so down can always be run safely. Containers configured with
auto_remove are removed by the engine on stop; otherwise pass --remove to
delete the container as well.`,
	Example: `  # Stop the container
  pwnbox down

  # Stop and remove the container
  pwnbox down --remove`,
	RunE: runDown,
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(downCmd)

	downCmd.Flags().BoolVar(&downRemove, "remove", false, "also remove the stopped container")
}

func runDown(_ *cobra.Command, _ []string) error {
	if err := requireConfig(); err != nil {
		return err
	}

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

	orch := lifecycle.New(engine, cfg.Profile(), os.Stdout).WithVerbose(verbose)
	return orch.Down(ctx, downRemove)
}
