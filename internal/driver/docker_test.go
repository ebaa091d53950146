package driver

import (
	"strings"
	"testing"
)

func TestDockerConfigDefaults(t *testing.T) {
	if DefaultContainerName != "stockpilot-driver" {
		t.Errorf("unexpected default container name: %s", DefaultContainerName)
	}
	if DefaultPort != "9222" {
		t.Errorf("unexpected default port: %s", DefaultPort)
	}
	if !strings.HasPrefix(ContainerPort, DefaultPort) {
		t.Errorf("container port %s does not match default port", ContainerPort)
	}
}

func TestNewDockerManagerFillsDefaults(t *testing.T) {
	m, err := NewDockerManager(DockerConfig{})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	defer m.Close()

	if m.containerName != DefaultContainerName {
		t.Errorf("unexpected container name: %s", m.containerName)
	}
	if m.imageName != DefaultImage {
		t.Errorf("unexpected image: %s", m.imageName)
	}
	if m.hostPort != DefaultPort {
		t.Errorf("unexpected host port: %s", m.hostPort)
	}
	if m.labels[Label] != "true" {
		t.Error("expected manager label set")
	}
}

func TestDockerManagerURL(t *testing.T) {
	m, err := NewDockerManager(DockerConfig{HostPort: "9333"})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	defer m.Close()

	if got := m.URL(); got != "http://localhost:9333" {
		t.Errorf("unexpected URL: %s", got)
	}
}
