package docker

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

// DefaultRedisImage carries the spectator feed.
const DefaultRedisImage = "redis:7-alpine"

const redisPort nat.Port = "6379/tcp"

// RedisSpec describes the feed container for one instance.
type RedisSpec struct {
	Instance string
	RunID    string
	Image    string
	HostPort int // Bound on 127.0.0.1
}

// containerConfig builds the create-time configuration for spec.
func (s RedisSpec) containerConfig() (*container.Config, *container.HostConfig) {
	image := s.Image
	if image == "" {
		image = DefaultRedisImage
	}

	labels := BuildLabels(s.Instance, s.RunID, "redis")
	labels[LabelRedisPort] = strconv.Itoa(s.HostPort)

	cfg := &container.Config{
		Image:  image,
		Labels: labels,
		ExposedPorts: nat.PortSet{
			redisPort: struct{}{},
		},
	}
	hostCfg := &container.HostConfig{
		PortBindings: nat.PortMap{
			redisPort: []nat.PortBinding{
				{
					HostIP:   "127.0.0.1",
					HostPort: strconv.Itoa(s.HostPort),
				},
			},
		},
	}
	return cfg, hostCfg
}

// StartRedis pulls the image if needed, then creates and starts the feed
// container. It returns the container ID.
func StartRedis(ctx context.Context, cli *client.Client, spec RedisSpec) (string, error) {
	cfg, hostCfg := spec.containerConfig()

	reader, err := cli.ImagePull(ctx, cfg.Image, types.ImagePullOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to pull %s: %w", cfg.Image, err)
	}
	// The pull only completes once its progress stream is drained.
	_, _ = io.Copy(io.Discard, reader)
	reader.Close()

	resp, err := cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, RedisContainerName(spec.Instance))
	if err != nil {
		return "", fmt.Errorf("failed to create Redis container: %w", err)
	}

	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return "", fmt.Errorf("failed to start Redis container: %w", err)
	}

	return resp.ID, nil
}

// StopRedis stops and removes every container labelled with instance. It
// returns the names of the containers removed.
func StopRedis(ctx context.Context, cli *client.Client, instance string) ([]string, error) {
	containerFilters := filters.NewArgs()
	containerFilters.Add("label", fmt.Sprintf("%s=%s", LabelInstanceName, instance))

	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: containerFilters,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	timeout := 10
	var removed []string
	for _, c := range containers {
		name := c.ID
		if len(c.Names) > 0 {
			name = c.Names[0]
		}
		// Already-stopped containers fail here; removal below still applies.
		_ = cli.ContainerStop(ctx, c.ID, container.StopOptions{Timeout: &timeout})

		if err := cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true, RemoveVolumes: true}); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		removed = append(removed, name)
	}

	return removed, nil
}
