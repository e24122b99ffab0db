package diffusion

import (
	"testing"

	"github.com/seedvr2/infercore/tensor"
)

func TestPlanSwapsTrailingSuffixOnly(t *testing.T) {
	indices := Plan(10, 4)
	want := []int{6, 7, 8, 9}
	if len(indices) != len(want) {
		t.Fatalf("Plan(10,4) = %v, want %v", indices, want)
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Fatalf("Plan(10,4) = %v, want %v", indices, want)
		}
	}
}

func TestPlanClampsToTotalBlocks(t *testing.T) {
	indices := Plan(4, 99)
	if len(indices) != 4 {
		t.Errorf("Plan with oversized swap depth = %v, want all 4 blocks", indices)
	}
}

func TestPlanZeroIsNil(t *testing.T) {
	if Plan(10, 0) != nil {
		t.Errorf("Plan(10,0) must be nil: full GPU residency")
	}
}

func TestSwappableBlockTracksResidencyAcrossEnterExit(t *testing.T) {
	entered, exited := 0, 0
	b := NewSwappableBlock(3, func() { entered++ }, func() { exited++ })

	if b.ResidentDevice != tensor.CPU {
		t.Fatalf("new block must start on CPU")
	}
	b.OnEnter()
	if b.ResidentDevice.Kind != "cuda" || entered != 1 {
		t.Errorf("OnEnter did not move block to GPU: device=%v entered=%d", b.ResidentDevice, entered)
	}
	b.OnExit()
	if b.ResidentDevice != tensor.CPU || exited != 1 {
		t.Errorf("OnExit did not move block back to CPU: device=%v exited=%d", b.ResidentDevice, exited)
	}
}

func TestActiveRequiresAtLeastOneCapabilityObject(t *testing.T) {
	if Active(nil) {
		t.Errorf("Active(nil) must be false: no block-swap wrapping means full residency")
	}
	if !Active([]*SwappableBlock{NewSwappableBlock(0, nil, nil)}) {
		t.Errorf("Active with one wrapped block must be true")
	}
}
