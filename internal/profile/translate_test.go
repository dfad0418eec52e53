package profile

import (
	"runtime"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/deadpackets/pwnbox-cli/internal/errors"
)

func validProfile() ContainerProfile {
	return ContainerProfile{
		Name:           "pwnbox",
		Hostname:       "pwnbox",
		Repository:     "docker.io/deadpackets/pwnbox",
		Tag:            "latest",
		Privileged:     true,
		DNSServers:     []string{"1.1.1.1", "8.8.8.8"},
		ForwardedPorts: []string{"2222:22"},
		ExternalVolume: "/tmp/external",
		SSHVolume:      "/tmp/ssh",
	}
}

func TestTranslate_Basic(t *testing.T) {
	spec, err := Translate(validProfile())
	require.NoError(t, err)
	require.NotNil(t, spec)

	assert.Equal(t, "pwnbox", spec.Name)
	assert.Equal(t, "pwnbox", spec.Hostname)
	assert.Equal(t, "docker.io/deadpackets/pwnbox:latest", spec.Image)
	assert.True(t, spec.Privileged)
	assert.False(t, spec.AutoRemove)
	assert.Equal(t, "bridge", spec.NetworkMode)
	assert.Equal(t, []string{"1.1.1.1", "8.8.8.8"}, spec.DNS)

	require.Contains(t, spec.PortBindings, nat.Port("22/tcp"))
	assert.Equal(t, "2222", spec.PortBindings["22/tcp"][0].HostPort)
	assert.Contains(t, spec.ExposedPorts, nat.Port("22/tcp"))

	assert.Contains(t, spec.Binds, "/tmp/external:/mnt/external:rw")
	assert.Contains(t, spec.Binds, "/tmp/ssh:/opt/ssh:rw")
	assert.Contains(t, spec.ExtraHosts, "host.docker.internal:host-gateway")
}

func TestTranslate_Deterministic(t *testing.T) {
	p := validProfile()
	first, err := Translate(p)
	require.NoError(t, err)
	second, err := Translate(p)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTranslate_PortRanges(t *testing.T) {
	p := validProfile()
	p.ForwardedPorts = []string{"9000-9002:8000-8002"}

	spec, err := Translate(p)
	require.NoError(t, err)

	require.Contains(t, spec.PortBindings, nat.Port("8000/tcp"))
	require.Contains(t, spec.PortBindings, nat.Port("8001/tcp"))
	require.Contains(t, spec.PortBindings, nat.Port("8002/tcp"))
	assert.Equal(t, "9000", spec.PortBindings["8000/tcp"][0].HostPort)
	assert.Equal(t, "9002", spec.PortBindings["8002/tcp"][0].HostPort)
}

func TestTranslate_PortValidation(t *testing.T) {
	tests := []struct {
		name string
		rule string
	}{
		{
			name: "mismatched range lengths",
			rule: "9000-9010:9000",
		},
		{
			name: "missing separator",
			rule: "9000",
		},
		{
			name: "non-numeric port",
			rule: "abc:22",
		},
		{
			name: "port out of range",
			rule: "70000:22",
		},
		{
			name: "inverted range",
			rule: "9010-9000:8000-8010",
		},
		{
			name: "too many separators",
			rule: "1:2:3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			p.ForwardedPorts = []string{tt.rule}

			spec, err := Translate(p)
			require.Error(t, err)
			assert.Nil(t, spec)

			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "container.forwarded_ports", verr.Field)
			assert.Equal(t, tt.rule, verr.Value)
		})
	}
}

func TestTranslate_OverlappingHostPorts(t *testing.T) {
	p := validProfile()
	p.ForwardedPorts = []string{"2222:22", "2220-2225:8000-8005"}

	spec, err := Translate(p)
	require.Error(t, err)
	assert.Nil(t, spec)

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "overlaps")
}

func TestTranslate_VolumeValidation(t *testing.T) {
	t.Run("relative path rejected", func(t *testing.T) {
		p := validProfile()
		p.ExternalVolume = "relative/path"

		spec, err := Translate(p)
		require.Error(t, err)
		assert.Nil(t, spec)

		var verr *apperrors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "container.external_volume", verr.Field)
	})

	t.Run("env vars expanded", func(t *testing.T) {
		t.Setenv("PWNBOX_TEST_DIR", "/tmp/expanded")
		p := validProfile()
		p.SSHVolume = "$PWNBOX_TEST_DIR/ssh"

		spec, err := Translate(p)
		require.NoError(t, err)
		assert.Contains(t, spec.Binds, "/tmp/expanded/ssh:/opt/ssh:rw")
	})

	t.Run("empty volume skipped", func(t *testing.T) {
		p := validProfile()
		p.ExternalVolume = ""

		spec, err := Translate(p)
		require.NoError(t, err)
		for _, bind := range spec.Binds {
			assert.NotContains(t, bind, "/mnt/external")
		}
	})
}

func TestTranslate_DNSValidation(t *testing.T) {
	p := validProfile()
	p.DNSServers = []string{"1.1.1.1", "not-an-ip"}

	spec, err := Translate(p)
	require.Error(t, err)
	assert.Nil(t, spec)

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "container.dns_servers", verr.Field)
	assert.Equal(t, "not-an-ip", verr.Value)
}

func TestTranslate_HostNetworking(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("host networking only applies on linux")
	}

	p := validProfile()
	p.HostNetworking = true
	p.ForwardedPorts = []string{"2222:22"}

	spec, err := Translate(p)
	require.NoError(t, err)
	assert.Equal(t, "host", spec.NetworkMode)
	assert.Empty(t, spec.PortBindings)
}

func TestTranslate_X11Forwarding(t *testing.T) {
	t.Setenv("DISPLAY", ":1")

	p := validProfile()
	p.X11Forwarding = true

	spec, err := Translate(p)
	require.NoError(t, err)
	assert.Contains(t, spec.Env, "DISPLAY=:1")
	if runtime.GOOS == "linux" {
		assert.Contains(t, spec.Binds, "/tmp/.X11-unix:/tmp/.X11-unix:rw")
	}
}

func TestTranslate_MissingName(t *testing.T) {
	p := validProfile()
	p.Name = ""

	spec, err := Translate(p)
	require.Error(t, err)
	assert.Nil(t, spec)
}

func TestImageRef(t *testing.T) {
	p := ContainerProfile{Repository: "docker.io/deadpackets/pwnbox", Tag: "v2"}
	assert.Equal(t, "docker.io/deadpackets/pwnbox:v2", p.ImageRef())
}
