package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// DumpOptions configures Dump's output format.
type DumpOptions func(*dumpOptions)

// DumpWithPrecision sets the number of decimal places to print.
func DumpWithPrecision(n int) DumpOptions {
	return func(o *dumpOptions) { o.Precision = n }
}

// DumpWithEdgeItems sets how many leading/trailing elements per
// dimension are printed before eliding the middle with "...".
func DumpWithEdgeItems(n int) DumpOptions {
	return func(o *dumpOptions) { o.EdgeItems = n }
}

type dumpOptions struct {
	Precision, EdgeItems int
}

// Dump renders t as a nested, bracketed string, eliding the middle of
// large dimensions. Intended for debug logging of intermediate
// latents and tile accumulators, not for production output.
func Dump(t *Tensor, optFns ...DumpOptions) string {
	opts := dumpOptions{Precision: 4, EdgeItems: 3}
	for _, fn := range optFns {
		fn(&opts)
	}
	if t.Numel() <= 1000 {
		opts.EdgeItems = t.Numel()
	}

	var sb strings.Builder
	var walk func(dims []int, stride int)
	walk = func(dims []int, stride int) {
		sb.WriteString("[")
		defer sb.WriteString("]")
		if len(dims) == 0 {
			return
		}
		n := dims[0]
		innerStride := 1
		for _, d := range dims[1:] {
			innerStride *= d
		}
		for i := 0; i < n; i++ {
			if i >= opts.EdgeItems && i < n-opts.EdgeItems {
				sb.WriteString("..., ")
				skip := n - 2*opts.EdgeItems
				i += skip - 1
				continue
			}
			if len(dims) > 1 {
				walk(dims[1:], stride+i*innerStride)
			} else {
				sb.WriteString(strconv.FormatFloat(float64(t.Data[stride+i]), 'f', opts.Precision, 32))
			}
			if i < n-1 {
				sb.WriteString(", ")
			}
		}
	}
	walk(t.Shape, 0)
	return fmt.Sprintf("%s %s", t.String(), sb.String())
}
