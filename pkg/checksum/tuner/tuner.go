// Package tuner picks a worker count for parallel hashing from the
// machine's CPU cores and memory.
package tuner

import "runtime"

// Worker limits.
const (
	// MaxWorkers caps every worker count, including explicit ones.
	MaxWorkers = 64

	// maxAutoWorkers caps the automatic choice.
	maxAutoWorkers = 16

	// bufferMemoryFraction is the share of available RAM read buffers may use.
	bufferMemoryFraction = 0.05
)

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM int64

	// AvailableRAM is the free RAM in bytes, possibly an estimate.
	AvailableRAM int64
}

// Workers returns the number of files to hash at once given resources and
// the per-worker read buffer size: one worker per core, limited so the read
// buffers fit in bufferMemoryFraction of available RAM, between 1 and
// maxAutoWorkers.
func Workers(resources SystemResources, chunkSize int) int {
	workers := min(max(resources.CPUCores, 1), maxAutoWorkers)

	if chunkSize > 0 && resources.AvailableRAM > 0 {
		budget := int64(float64(resources.AvailableRAM) * bufferMemoryFraction)
		byMemory := int(budget / int64(chunkSize))
		workers = min(workers, max(byMemory, 1))
	}
	return workers
}

// Resolve turns a configured worker count into the one to use. Positive
// values are honored up to MaxWorkers; zero means automatic.
func Resolve(requested, chunkSize int) int {
	if requested > 0 {
		return min(requested, MaxWorkers)
	}

	resources, err := Detect()
	if err != nil {
		resources = SystemResources{CPUCores: runtime.NumCPU()}
	}
	return Workers(resources, chunkSize)
}
