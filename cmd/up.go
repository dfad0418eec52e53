package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deadpackets/pwnbox-cli/internal/docker"
	"github.com/deadpackets/pwnbox-cli/internal/lifecycle"
	"github.com/deadpackets/pwnbox-cli/internal/profile"
)

var noSSH bool

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the PwnBox container and connect to it",
	Long: `Up brings the PwnBox container to a running, reachable state.

The command pulls the image when it is missing or stale, creates and starts
the container from your configuration, enables X11 forwarding when
configured, waits for SSH to accept connections and then logs you in.
Running up against an already-running PwnBox simply reconnects.`,
	Example: `  # Start and connect
  pwnbox up

  # Start without opening an SSH session
  pwnbox up --no-ssh

  # Start with a longer SSH readiness timeout
  pwnbox up -t 60`,
	RunE: runUp,
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(upCmd)

	upCmd.Flags().BoolVarP(&noSSH, "no-ssh", "s", false, "do not SSH into the container after bringing it up")
}

func runUp(_ *cobra.Command, _ []string) error {
	if err := requireConfig(); err != nil {
		return err
	}

	p := cfg.Profile()
	if sshTimeout > 0 {
		p.SSHTimeout = time.Duration(sshTimeout) * time.Second
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

	orch := lifecycle.New(engine, p, os.Stdout).
		WithVerbose(verbose).
		WithSkipFreshness(noUpdate)

	if _, err := orch.Up(ctx); err != nil {
		return err
	}

	if noSSH {
		fmt.Println(color.GreenString("=> PwnBox launched successfully!"))
		return nil
	}

	fmt.Println(color.GreenString("=> SSH available! Logging in..."))
	return attachSSH(p)
}

// attachSSH hands the terminal to the system ssh client.
func attachSSH(p profile.ContainerProfile) error {
	ssh := exec.Command("ssh",
		"-o", "StrictHostKeyChecking=no",
		"-X",
		fmt.Sprintf("%s@%s", p.SSHUser, p.SSHHost),
		"-p", strconv.Itoa(p.SSHPort),
	)
	ssh.Stdin = os.Stdin
	ssh.Stdout = os.Stdout
	ssh.Stderr = os.Stderr
	return ssh.Run()
}
