// device.go - builds the example binary's view of the host's visible
// GPUs. Real discovery (nvidia-smi, NVML, ROCm-SMI) is out of scope
// (see Non-goals); this stands in for whatever the host's launcher
// already knows about its own hardware.
package main

import (
	"sort"

	"github.com/seedvr2/infercore/device"
)

// exampleHostDevices simulates a host with more than one visible GPU,
// so selectDevice has something to sort.
func exampleHostDevices() []device.Info {
	return []device.Info{
		{
			ID:           device.ID{Index: "0", Library: "CUDA"},
			Name:         "example-gpu-0",
			TotalMemory:  12 << 30,
			FreeMemory:   9 << 30,
			ComputeMajor: 8, ComputeMinor: 6,
		},
		{
			ID:           device.ID{Index: "1", Library: "CUDA"},
			Name:         "example-gpu-1",
			TotalMemory:  24 << 30,
			FreeMemory:   22 << 30,
			ComputeMajor: 8, ComputeMinor: 9,
		},
	}
}

// selectDevice picks the visible device with the most free VRAM and
// reports the environment variables a launcher would need to pin a
// child process to it.
func selectDevice(infos []device.Info) (device.Info, map[string]string) {
	sorted := make(device.ByFreeMemory, len(infos))
	copy(sorted, infos)
	sort.Sort(sorted)
	chosen := sorted[len(sorted)-1]
	return chosen, device.VisibleDevicesEnv([]device.Info{chosen})
}
