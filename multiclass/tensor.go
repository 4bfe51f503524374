package multiclass

import (
	"fmt"

	"gorgonia.org/tensor"
)

// ContextualiseTensor expands a (B, F) tensor into a (B, K, K·F) tensor of
// the same dtype. Only dense Float64 and Float32 tensors are supported;
// sparse tensors are rejected and strided views are materialised first. The
// input is only read.
func (c *Contextualiser) ContextualiseTensor(t tensor.Tensor) (*tensor.Dense, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil feature tensor", ErrInvalidInput)
	}

	d, ok := t.(*tensor.Dense)
	if !ok || d == nil {
		return nil, fmt.Errorf("%w: expected a dense tensor, got %T", ErrInvalidInput, t)
	}

	shape := d.Shape()
	if shape.Dims() != 2 {
		return nil, fmt.Errorf("%w: expected rank-2 (batch, features) tensor, got shape %v", ErrShapeMismatch, shape)
	}

	batch, nFeatures := shape[0], shape[1]
	if err := checkDims(batch, nFeatures); err != nil {
		return nil, err
	}

	var src tensor.Tensor = d
	if d.IsMaterializable() {
		src = d.Materialize()
	}

	width := c.OutputDim(nFeatures)
	outShape := tensor.Shape{batch, c.nArms, width}

	switch src.Dtype() {
	case tensor.Float64:
		data, ok := src.Data().([]float64)
		if !ok || len(data) < batch*nFeatures {
			return nil, fmt.Errorf("%w: float64 tensor backing does not hold %d values", ErrInvalidInput, batch*nFeatures)
		}
		return tensor.New(tensor.WithShape(outShape...), tensor.WithBacking(expandBatch(data, batch, nFeatures, c.nArms))), nil
	case tensor.Float32:
		data, ok := src.Data().([]float32)
		if !ok || len(data) < batch*nFeatures {
			return nil, fmt.Errorf("%w: float32 tensor backing does not hold %d values", ErrInvalidInput, batch*nFeatures)
		}
		return tensor.New(tensor.WithShape(outShape...), tensor.WithBacking(expandBatch(data, batch, nFeatures, c.nArms))), nil
	default:
		return nil, fmt.Errorf("%w: unsupported dtype %v", ErrInvalidInput, src.Dtype())
	}
}

// expandBatch scatters each row of a row-major (batch, nFeatures) buffer into
// a zeroed (batch, nArms, nArms·nFeatures) buffer.
func expandBatch[T float32 | float64](src []T, batch, nFeatures, nArms int) []T {
	width := nArms * nFeatures
	block := nArms * width
	out := make([]T, batch*block)
	for b := 0; b < batch; b++ {
		row := src[b*nFeatures : (b+1)*nFeatures]
		for k := 0; k < nArms; k++ {
			copy(out[b*block+k*width+k*nFeatures:], row)
		}
	}
	return out
}
