package docker

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

// Host ports handed out to feed containers.
const (
	FirstFeedPort = 6379
	LastFeedPort  = 6478
)

// FindFeedPort returns the first port in [FirstFeedPort, LastFeedPort] that no
// feed container claims and that can be bound on localhost.
func FindFeedPort(ctx context.Context, cli *client.Client) (int, error) {
	filter := filters.NewArgs()
	filter.Add("label", fmt.Sprintf("%s=true", LabelProject))
	filter.Add("label", fmt.Sprintf("%s=redis", LabelComponent))

	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filter,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query Docker containers: %w", err)
	}

	used := make(map[int]bool)
	for _, c := range containers {
		if port, err := strconv.Atoi(c.Labels[LabelRedisPort]); err == nil {
			used[port] = true
		}
	}
	return nextFreePort(used, isPortBindable)
}

func nextFreePort(used map[int]bool, bindable func(int) bool) (int, error) {
	for port := FirstFeedPort; port <= LastFeedPort; port++ {
		if used[port] {
			continue
		}
		if bindable(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available feed ports (range %d-%d exhausted)", FirstFeedPort, LastFeedPort)
}

// isPortBindable reports whether port can be bound on localhost right now.
func isPortBindable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}
