package docker

import (
	"fmt"

	"github.com/google/uuid"
)

// Label keys used for setgame resources
const (
	LabelProject       = "setgame.project"
	LabelInstanceName  = "setgame.instance.name"
	LabelInstanceRunID = "setgame.instance.run_id"
	LabelComponent     = "setgame.component"
	LabelRedisPort     = "setgame.redis.port"
)

// BuildLabels creates the standard label set for setgame resources.
// component may be empty.
func BuildLabels(instanceName, runID, component string) map[string]string {
	labels := map[string]string{
		LabelProject:       "true",
		LabelInstanceName:  instanceName,
		LabelInstanceRunID: runID,
	}

	if component != "" {
		labels[LabelComponent] = component
	}

	return labels
}

// GenerateRunID creates a new UUID for a feed run.
// Each `setgame feed up` gets a unique run ID.
func GenerateRunID() string {
	return uuid.New().String()
}

// RedisContainerName returns the Redis container name for an instance
func RedisContainerName(instanceName string) string {
	return fmt.Sprintf("setgame-redis-%s", instanceName)
}
