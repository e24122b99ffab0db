// Package device describes the GPU(s) visible to the inference core:
// identification, capability, and the device-selection environment
// variables needed to pin a single-GPU run (see Non-goals: no
// multi-GPU sharding, but a host may still need to select which GPU to
// use out of several visible ones).
package device

import (
	"fmt"
	"strconv"
	"strings"
)

// ID uniquely identifies a device for a given backend library.
type ID struct {
	// Index is the ordinal reported by the backend (e.g. CUDA device index).
	Index string `json:"index"`
	// Library identifies the backend ("CUDA", "ROCm", "CPU").
	Library string `json:"library,omitempty"`
}

// Info describes one GPU as discovered by the host before the core is
// invoked. The core never performs discovery itself; Info values are
// supplied by the caller (see Out of scope: concrete device discovery).
type Info struct {
	ID

	Name string `json:"name"`

	// TotalMemory is the total VRAM in bytes.
	TotalMemory uint64 `json:"total_memory"`

	// FreeMemory is the VRAM currently available in bytes.
	FreeMemory uint64 `json:"free_memory"`

	// ComputeMajor/Minor is the CUDA compute capability, or -1 if unknown.
	ComputeMajor int
	ComputeMinor int
}

func (d Info) Compute() string {
	if d.ComputeMajor < 0 {
		return "unknown"
	}
	return strconv.Itoa(d.ComputeMajor) + "." + strconv.Itoa(d.ComputeMinor)
}

// SupportsBF16 reports whether native BF16 compute is available on this
// device. Ampere (compute capability 8.0) and newer support it. The
// precision planner does not consult it: its plan depends only on the
// loaded weights' dtype.
func (d Info) SupportsBF16() bool {
	return d.ComputeMajor >= 8
}

// SupportsFP8 reports whether native FP8 tensor cores are available.
// Hopper/Ada (compute capability 8.9) and newer support it; elsewhere
// FP8 weights must still be upcast before compute, which the precision
// planner already does unconditionally.
func (d Info) SupportsFP8() bool {
	return d.ComputeMajor > 8 || (d.ComputeMajor == 8 && d.ComputeMinor >= 9)
}

func (d Info) String() string {
	return fmt.Sprintf("%s(%s) cc=%s mem=%d/%d", d.Name, d.Library, d.Compute(), d.FreeMemory, d.TotalMemory)
}

// ByFreeMemory sorts devices ascending by free VRAM.
type ByFreeMemory []Info

func (a ByFreeMemory) Len() int           { return len(a) }
func (a ByFreeMemory) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ByFreeMemory) Less(i, j int) bool { return a[i].FreeMemory < a[j].FreeMemory }

// VisibleDevicesEnv builds the backend-specific environment variables
// needed to restrict a child process to the given devices, mirroring
// how CUDA_VISIBLE_DEVICES/ROCR_VISIBLE_DEVICES pin a single GPU.
func VisibleDevicesEnv(infos []Info) map[string]string {
	if len(infos) == 0 {
		return nil
	}
	env := map[string]string{}
	var cuda, rocm []string
	for _, d := range infos {
		switch d.Library {
		case "CUDA":
			cuda = append(cuda, d.Index)
		case "ROCm":
			rocm = append(rocm, d.Index)
		}
	}
	if len(cuda) > 0 {
		env["CUDA_VISIBLE_DEVICES"] = strings.Join(cuda, ",")
	}
	if len(rocm) > 0 {
		env["ROCR_VISIBLE_DEVICES"] = strings.Join(rocm, ",")
	}
	return env
}
