package multiclass

import (
	"fmt"

	"go.uber.org/zap"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// ContextualiseNode adds the disjoint-context expansion of a (B, F) node to
// its expression graph and returns the (B, K, K·F) result node.
//
// Arm k's row is x concatenated between constant zero blocks of widths k·F
// and (K-1-k)·F; the arm rows are concatenated and reshaped. Only Concat and
// Reshape are involved, so gradients propagate back to x: every x[b, f]
// feeds exactly K output positions with coefficient 1. The graph holds
// O(B·K²·F) values and x stays its only input.
func (c *Contextualiser) ContextualiseNode(x *gorgonia.Node) (*gorgonia.Node, error) {
	if x == nil {
		return nil, fmt.Errorf("%w: input node is nil", ErrInvalidInput)
	}

	shape := x.Shape()
	if shape.Dims() != 2 {
		return nil, fmt.Errorf("%w: expected rank-2 (batch, features) node, got shape %v", ErrShapeMismatch, shape)
	}

	batch, nFeatures := shape[0], shape[1]
	if err := checkDims(batch, nFeatures); err != nil {
		return nil, err
	}

	dt := x.Dtype()
	if dt != tensor.Float64 && dt != tensor.Float32 {
		return nil, fmt.Errorf("%w: unsupported dtype %v", ErrInvalidInput, dt)
	}

	width := c.OutputDim(nFeatures)

	// Zero blocks are shared between arms: arm k uses width k·F on the left
	// and (K-1-k)·F on the right.
	zeros := make(map[int]*gorgonia.Node, c.nArms)
	zeroBlock := func(n int) *gorgonia.Node {
		if z, ok := zeros[n]; ok {
			return z
		}
		z := gorgonia.NewConstant(
			tensor.New(tensor.WithShape(batch, n*nFeatures), tensor.Of(dt)),
			gorgonia.WithName(fmt.Sprintf("%s_zeros_%d", x.Name(), n*nFeatures)))
		zeros[n] = z
		return z
	}

	parts := make([]*gorgonia.Node, 0, c.nArms*3)
	for k := 0; k < c.nArms; k++ {
		if k > 0 {
			parts = append(parts, zeroBlock(k))
		}
		parts = append(parts, x)
		if right := c.nArms - 1 - k; right > 0 {
			parts = append(parts, zeroBlock(right))
		}
	}

	flat := x
	if len(parts) > 1 {
		var err error
		if flat, err = gorgonia.Concat(1, parts...); err != nil {
			return nil, fmt.Errorf("concat arm blocks: %w", err)
		}
	}

	out, err := gorgonia.Reshape(flat, tensor.Shape{batch, c.nArms, width})
	if err != nil {
		return nil, fmt.Errorf("reshape to disjoint contexts: %w", err)
	}

	c.logger.Debug("contextualise node added",
		zap.String("input", x.Name()),
		zap.Int("batch", batch),
		zap.Int("n_features", nFeatures),
		zap.Int("n_arms", c.nArms))

	return out, nil
}
