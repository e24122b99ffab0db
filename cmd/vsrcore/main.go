// Command vsrcore is a thin example binary exercising the inference
// core's generation loop end to end against synthetic input and mock
// DiT/VAE/embedding collaborators. It is not a production video
// super-resolution tool: real weight loading, video I/O, and the
// wavelet color-correction filter are out of scope (see Non-goals).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
