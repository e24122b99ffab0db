// Package precision derives the compute/autocast/VAE/decode dtype plan
// from the dtype the loaded DiT weights were stored in.
package precision

import "github.com/seedvr2/infercore/tensor"

// Plan is the full set of dtypes the rest of the pipeline casts into
// before entering the sampler, the VAE, and the final decode step.
type Plan struct {
	Compute  tensor.DType
	Autocast tensor.DType
	VAE      tensor.DType
	Decode   tensor.DType
}

// Derive implements the §4.2 table: FP8-loaded weights compute in BF16
// but decode to FP16 for compatibility; FP16-loaded weights stay FP16
// throughout; anything else (BF16, or an unrecognized dtype) computes
// and decodes in BF16.
func Derive(loaded tensor.DType) Plan {
	switch {
	case loaded.IsFP8():
		return Plan{Compute: tensor.DTypeBF16, Autocast: tensor.DTypeBF16, VAE: tensor.DTypeBF16, Decode: tensor.DTypeF16}
	case loaded == tensor.DTypeF16:
		return Plan{Compute: tensor.DTypeF16, Autocast: tensor.DTypeF16, VAE: tensor.DTypeF16, Decode: tensor.DTypeF16}
	default:
		return Plan{Compute: tensor.DTypeBF16, Autocast: tensor.DTypeBF16, VAE: tensor.DTypeBF16, Decode: tensor.DTypeBF16}
	}
}
