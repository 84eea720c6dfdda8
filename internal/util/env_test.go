package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("STAGERANKER_TEST_VALUE", "")
	assert.Equal(t, "fallback", EnvOrDefault("STAGERANKER_TEST_VALUE", "fallback"))

	t.Setenv("STAGERANKER_TEST_VALUE", "set")
	assert.Equal(t, "set", EnvOrDefault("STAGERANKER_TEST_VALUE", "fallback"))
}

func TestEnvDurationOrDefault(t *testing.T) {
	t.Setenv("STAGERANKER_TEST_TTL", "90m")
	assert.Equal(t, 90*time.Minute, EnvDurationOrDefault("STAGERANKER_TEST_TTL", time.Hour))

	t.Setenv("STAGERANKER_TEST_TTL", "soon")
	assert.Equal(t, time.Hour, EnvDurationOrDefault("STAGERANKER_TEST_TTL", time.Hour))

	t.Setenv("STAGERANKER_TEST_TTL", "-5m")
	assert.Equal(t, time.Hour, EnvDurationOrDefault("STAGERANKER_TEST_TTL", time.Hour))
}

func TestEnvFloatOrDefault(t *testing.T) {
	t.Setenv("STAGERANKER_TEST_RATE", "2.5")
	assert.Equal(t, 2.5, EnvFloatOrDefault("STAGERANKER_TEST_RATE", 5))

	t.Setenv("STAGERANKER_TEST_RATE", "")
	assert.Equal(t, 5.0, EnvFloatOrDefault("STAGERANKER_TEST_RATE", 5))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"10.0.0.1", "192.168.0.0/16"}, SplitList(" 10.0.0.1, ,192.168.0.0/16 "))
	assert.Empty(t, SplitList(""))
}
