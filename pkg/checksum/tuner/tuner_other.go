//go:build !linux && !darwin

package tuner

import "runtime"

// fallbackRAM is assumed when the platform offers no cheap way to ask.
const fallbackRAM = 8 << 30

// Detect reports the core count and an assumed 8 GiB of RAM.
func Detect() (SystemResources, error) {
	return SystemResources{
		CPUCores:     runtime.NumCPU(),
		TotalRAM:     fallbackRAM,
		AvailableRAM: fallbackRAM / 2,
	}, nil
}
