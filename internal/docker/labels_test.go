package docker

import (
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLabels(t *testing.T) {
	labels := BuildLabels("prod", "test-run-123", "redis")

	assert.Equal(t, "true", labels[LabelProject])
	assert.Equal(t, "prod", labels[LabelInstanceName])
	assert.Equal(t, "test-run-123", labels[LabelInstanceRunID])
	assert.Equal(t, "redis", labels[LabelComponent])
	assert.Len(t, labels, 4)
}

func TestBuildLabels_NoComponent(t *testing.T) {
	labels := BuildLabels("dev", "test-run-456", "")

	assert.Equal(t, "true", labels[LabelProject])
	assert.NotContains(t, labels, LabelComponent)
	assert.Len(t, labels, 3)
}

func TestGenerateRunID(t *testing.T) {
	runID1 := GenerateRunID()
	runID2 := GenerateRunID()

	_, err := uuid.Parse(runID1)
	assert.NoError(t, err)
	_, err = uuid.Parse(runID2)
	assert.NoError(t, err)

	assert.NotEqual(t, runID1, runID2)
}

func TestRedisContainerName(t *testing.T) {
	assert.Equal(t, "setgame-redis-tuesday", RedisContainerName("tuesday"))
}

func TestRedisSpec_ContainerConfig(t *testing.T) {
	t.Run("defaults the image", func(t *testing.T) {
		cfg, hostCfg := RedisSpec{Instance: "a", RunID: "r", HostPort: 6400}.containerConfig()

		assert.Equal(t, DefaultRedisImage, cfg.Image)
		assert.Equal(t, "6400", cfg.Labels[LabelRedisPort])
		assert.Equal(t, "a", cfg.Labels[LabelInstanceName])
		assert.Contains(t, cfg.ExposedPorts, nat.Port("6379/tcp"))

		bindings := hostCfg.PortBindings[nat.Port("6379/tcp")]
		require.Len(t, bindings, 1)
		assert.Equal(t, "127.0.0.1", bindings[0].HostIP)
		assert.Equal(t, "6400", bindings[0].HostPort)
	})

	t.Run("custom image", func(t *testing.T) {
		cfg, _ := RedisSpec{Instance: "a", Image: "redis:6", HostPort: 6379}.containerConfig()
		assert.Equal(t, "redis:6", cfg.Image)
	})
}
