// Package profile defines the declarative description of one managed PwnBox
// deployment and its translation into a container creation spec.
package profile

import "time"

// ContainerProfile identifies one managed deployment. It is constructed once
// per invocation from configuration and stays immutable for the duration of
// the command.
type ContainerProfile struct {
	Name     string
	Hostname string

	Repository string
	Tag        string

	Privileged     bool
	AutoRemove     bool
	X11Forwarding  bool
	HostNetworking bool

	DNSServers     []string
	ForwardedPorts []string // HOST:CONTAINER, single ports or equal-length ranges

	ExternalVolume string
	SSHVolume      string

	SSHHost    string
	SSHPort    int
	SSHUser    string
	SSHTimeout time.Duration
}

// ImageRef returns the repository:tag reference for the profile's image.
func (p ContainerProfile) ImageRef() string {
	return p.Repository + ":" + p.Tag
}
