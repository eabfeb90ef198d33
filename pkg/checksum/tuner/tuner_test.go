package tuner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkers(t *testing.T) {
	const gib = int64(1) << 30

	tests := []struct {
		name      string
		resources SystemResources
		chunkSize int
		want      int
	}{
		{"cores bound", SystemResources{CPUCores: 4, AvailableRAM: 8 * gib}, 1 << 20, 4},
		{"capped", SystemResources{CPUCores: 128, AvailableRAM: 64 * gib}, 1 << 20, maxAutoWorkers},
		{"memory bound", SystemResources{CPUCores: 8, AvailableRAM: 100 << 20}, 1 << 20, 5},
		{"never below one", SystemResources{CPUCores: 8, AvailableRAM: 1 << 20}, 1 << 20, 1},
		{"unknown memory", SystemResources{CPUCores: 2}, 1 << 20, 2},
		{"zero cores", SystemResources{}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Workers(tt.resources, tt.chunkSize))
		})
	}
}

func TestResolve(t *testing.T) {
	assert.Equal(t, 3, Resolve(3, 1<<20))
	assert.Equal(t, MaxWorkers, Resolve(1000, 1<<20))

	auto := Resolve(0, 1<<20)
	assert.GreaterOrEqual(t, auto, 1)
	assert.LessOrEqual(t, auto, maxAutoWorkers)
}

func TestDetect(t *testing.T) {
	resources, err := Detect()
	require.NoError(t, err)
	assert.Positive(t, resources.CPUCores)
	assert.Positive(t, resources.TotalRAM)
	assert.LessOrEqual(t, resources.AvailableRAM, resources.TotalRAM)
}
