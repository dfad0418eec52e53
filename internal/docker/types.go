package docker

import "time"

// Container is the runtime-assigned identity of a managed container. The
// engine remains the source of truth; callers re-query rather than caching
// this across lifecycle steps.
type Container struct {
	ID      string
	Name    string
	State   string // running, exited, created, etc.
	Image   string
	Created time.Time
}

// IsRunning reports whether the engine considers the container running.
func (c *Container) IsRunning() bool {
	return c != nil && c.State == "running"
}

// ShortID returns the abbreviated container ID the engine CLI displays.
func (c *Container) ShortID() string {
	if len(c.ID) > 12 {
		return c.ID[:12]
	}
	return c.ID
}
