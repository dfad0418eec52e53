package profile

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/docker/go-connections/nat"

	apperrors "github.com/deadpackets/pwnbox-cli/internal/errors"
)

// Container-side mount points for the two configured volumes.
const (
	externalMount = "/mnt/external"
	sshMount      = "/opt/ssh"
	x11Socket     = "/tmp/.X11-unix"
)

// ContainerSpec is the normalized container creation specification produced
// by Translate. It maps directly onto the engine's create parameters.
type ContainerSpec struct {
	Name     string
	Hostname string
	Image    string

	Env        []string
	Privileged bool
	AutoRemove bool

	NetworkMode  string
	DNS          []string
	ExposedPorts nat.PortSet
	PortBindings nat.PortMap
	Binds        []string
	ExtraHosts   []string
}

// Translate converts a profile into a ContainerSpec. It is pure apart from
// environment variable expansion in volume paths, which the configuration
// format promises. On any violation it returns a ValidationError and no
// partial spec.
func Translate(p ContainerProfile) (*ContainerSpec, error) {
	spec := &ContainerSpec{
		Name:         p.Name,
		Hostname:     p.Hostname,
		Image:        p.ImageRef(),
		Privileged:   p.Privileged,
		AutoRemove:   p.AutoRemove,
		NetworkMode:  "bridge",
		ExposedPorts: nat.PortSet{},
		PortBindings: nat.PortMap{},
		ExtraHosts:   []string{"host.docker.internal:host-gateway"},
	}

	if p.Name == "" {
		return nil, &apperrors.ValidationError{Field: "container.name", Reason: "must not be empty"}
	}
	if p.Repository == "" || p.Tag == "" {
		return nil, &apperrors.ValidationError{Field: "image", Reason: "repository and tag must both be set"}
	}

	for _, addr := range p.DNSServers {
		addr = strings.TrimSpace(addr)
		if net.ParseIP(addr) == nil {
			return nil, &apperrors.ValidationError{Field: "container.dns_servers", Value: addr, Reason: "not a valid IP address"}
		}
		spec.DNS = append(spec.DNS, addr)
	}

	// Host networking bypasses per-port bindings entirely (Linux only; the
	// engine falls back to bridge semantics elsewhere).
	if p.HostNetworking && runtime.GOOS == "linux" {
		spec.NetworkMode = "host"
	} else {
		usedHostPorts := map[int]string{}
		for _, rule := range p.ForwardedPorts {
			hostPorts, containerPorts, err := parsePortRule(rule)
			if err != nil {
				return nil, err
			}
			for i, hostPort := range hostPorts {
				if prev, taken := usedHostPorts[hostPort]; taken {
					return nil, &apperrors.ValidationError{
						Field:  "container.forwarded_ports",
						Value:  rule,
						Reason: fmt.Sprintf("host port %d overlaps rule %q", hostPort, prev),
					}
				}
				usedHostPorts[hostPort] = rule

				cp := nat.Port(strconv.Itoa(containerPorts[i]) + "/tcp")
				spec.ExposedPorts[cp] = struct{}{}
				spec.PortBindings[cp] = append(spec.PortBindings[cp], nat.PortBinding{
					HostPort: strconv.Itoa(hostPort),
				})
			}
		}
	}

	volumes := []struct{ field, host, mount string }{
		{"container.external_volume", p.ExternalVolume, externalMount},
		{"container.ssh_volume", p.SSHVolume, sshMount},
	}
	for _, volume := range volumes {
		if volume.host == "" {
			continue
		}
		hostPath := os.ExpandEnv(volume.host)
		if !filepath.IsAbs(hostPath) {
			return nil, &apperrors.ValidationError{Field: volume.field, Value: volume.host, Reason: "must resolve to an absolute path"}
		}
		spec.Binds = append(spec.Binds, hostPath+":"+volume.mount+":rw")
	}

	if p.X11Forwarding {
		display := os.Getenv("DISPLAY")
		if display == "" {
			display = ":0"
		}
		spec.Env = append(spec.Env, "DISPLAY="+display)
		if runtime.GOOS == "linux" {
			spec.Binds = append(spec.Binds, x11Socket+":"+x11Socket+":rw")
		}
	}

	return spec, nil
}

// parsePortRule parses HOST:CONTAINER where each side is a single port or an
// INCLUSIVE-INCLUSIVE range; both sides must expand to the same length.
func parsePortRule(rule string) (hostPorts, containerPorts []int, err error) {
	invalid := func(reason string) (hostPorts, containerPorts []int, err error) {
		return nil, nil, &apperrors.ValidationError{Field: "container.forwarded_ports", Value: rule, Reason: reason}
	}

	parts := strings.Split(rule, ":")
	if len(parts) != 2 {
		return invalid("expected HOST:CONTAINER")
	}

	hostPorts, err = parsePortRange(parts[0])
	if err != nil {
		return invalid(err.Error())
	}
	containerPorts, err = parsePortRange(parts[1])
	if err != nil {
		return invalid(err.Error())
	}
	if len(hostPorts) != len(containerPorts) {
		return invalid(fmt.Sprintf("host range covers %d port(s) but container range covers %d", len(hostPorts), len(containerPorts)))
	}

	return hostPorts, containerPorts, nil
}

// parsePortRange expands "80" or "8000-8010" into the ordered list of ports.
func parsePortRange(s string) ([]int, error) {
	lo, hi, found := strings.Cut(s, "-")
	start, err := parsePort(lo)
	if err != nil {
		return nil, err
	}
	end := start
	if found {
		end, err = parsePort(hi)
		if err != nil {
			return nil, err
		}
		if end < start {
			return nil, fmt.Errorf("range %q ends before it starts", s)
		}
	}

	ports := make([]int, 0, end-start+1)
	for port := start; port <= end; port++ {
		ports = append(ports, port)
	}
	return ports, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("%q is not a valid port number", s)
	}
	return port, nil
}
