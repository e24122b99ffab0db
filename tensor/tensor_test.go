package tensor

import "testing"

func TestNewAllocatesZeroed(t *testing.T) {
	tt := New([]int{2, 3}, DTypeF32, CPU)
	if tt.Numel() != 6 {
		t.Fatalf("Numel = %d, want 6", tt.Numel())
	}
	for _, v := range tt.Data {
		if v != 0 {
			t.Fatalf("expected zero-filled backing store, got %v", tt.Data)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := New([]int{2}, DTypeF32, CPU)
	a.Data[0] = 1
	b := a.Clone()
	b.Data[0] = 2
	if a.Data[0] != 1 {
		t.Fatalf("Clone must not alias the original backing store")
	}
}

func TestCastPreservesValues(t *testing.T) {
	a := New([]int{2}, DTypeF32, CPU)
	a.Data[0], a.Data[1] = 1.5, -2.5
	b := a.Cast(DTypeBF16)
	if b.DType != DTypeBF16 {
		t.Fatalf("Cast did not update DType")
	}
	if b.Data[0] != 1.5 || b.Data[1] != -2.5 {
		t.Fatalf("Cast must not alter values, got %v", b.Data)
	}
}

func TestToMovesDeviceWithoutMutatingOriginal(t *testing.T) {
	a := New([]int{1}, DTypeF32, CPU)
	b := a.To(CUDA(0))
	if a.Device != CPU {
		t.Fatalf("To must not mutate the receiver's device")
	}
	if b.Device.Kind != "cuda" || b.Device.Index != 0 {
		t.Fatalf("To = %v, want cuda:0", b.Device)
	}
}

func TestDTypeIsFP8(t *testing.T) {
	cases := map[DType]bool{
		DTypeF32:     false,
		DTypeF16:     false,
		DTypeBF16:    false,
		DTypeFP8E4M3: true,
		DTypeFP8E5M2: true,
	}
	for dt, want := range cases {
		if got := dt.IsFP8(); got != want {
			t.Errorf("%s.IsFP8() = %v, want %v", dt, got, want)
		}
	}
}
