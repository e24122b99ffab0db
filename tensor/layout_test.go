package tensor

import "testing"

func TestToCHWAndBackIsIdentity(t *testing.T) {
	v := New([]int{1, 2, 2, 3}, DTypeF32, CPU) // (T,H,W,C)
	for i := range v.Data {
		v.Data[i] = float32(i)
	}
	chw := v.ToCHW()
	if chw.Shape[1] != 3 || chw.Shape[2] != 2 || chw.Shape[3] != 2 {
		t.Fatalf("ToCHW shape = %v, want (1,3,2,2)", chw.Shape)
	}
	back := chw.ToHWC()
	if len(back.Data) != len(v.Data) {
		t.Fatalf("round trip length mismatch")
	}
	for i := range v.Data {
		if back.Data[i] != v.Data[i] {
			t.Fatalf("round trip element %d = %v, want %v", i, back.Data[i], v.Data[i])
		}
	}
}

func TestToCTHWMatchesChannelFirstTemporalSecond(t *testing.T) {
	v := New([]int{2, 1, 1, 3}, DTypeF32, CPU) // (T=2,H=1,W=1,C=3)
	for i := range v.Data {
		v.Data[i] = float32(i)
	}
	out := v.ToCTHW()
	if out.Shape[0] != 3 || out.Shape[1] != 2 {
		t.Fatalf("ToCTHW shape = %v, want (3,2,1,1)", out.Shape)
	}
	// channel c, frame t now at data[c*2+t]; original at data[t*3+c]
	for tm := 0; tm < 2; tm++ {
		for c := 0; c < 3; c++ {
			got := out.Data[c*2+tm]
			want := v.Data[tm*3+c]
			if got != want {
				t.Fatalf("ToCTHW[c=%d,t=%d] = %v, want %v", c, tm, got, want)
			}
		}
	}
}

func TestSliceHWExtractsSpatialWindow(t *testing.T) {
	v := New([]int{1, 4, 4, 1}, DTypeF32, CPU)
	for i := range v.Data {
		v.Data[i] = float32(i)
	}
	s := v.SliceHW(1, 3, 1, 3)
	if s.Shape[1] != 2 || s.Shape[2] != 2 {
		t.Fatalf("SliceHW shape = %v, want (1,2,2,1)", s.Shape)
	}
	want := []float32{5, 6, 9, 10}
	for i, w := range want {
		if s.Data[i] != w {
			t.Fatalf("Data[%d] = %v, want %v", i, s.Data[i], w)
		}
	}
}

func TestPasteAddHWAccumulatesWeightedContribution(t *testing.T) {
	dst := New([]int{1, 1, 2, 2}, DTypeF32, CPU)
	weight := New([]int{1, 1, 2, 2}, DTypeF32, CPU)
	src := New([]int{1, 1, 1, 1}, DTypeF32, CPU)
	src.Data[0] = 4
	mask := []float32{0.5}

	PasteAddHW(dst, weight, src, 1, 1, mask)
	if dst.Data[3] != 2 {
		t.Fatalf("dst.Data[3] = %v, want 2 (4*0.5)", dst.Data[3])
	}
	if weight.Data[3] != 0.5 {
		t.Fatalf("weight.Data[3] = %v, want 0.5", weight.Data[3])
	}
}
