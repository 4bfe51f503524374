package multiclass

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Contextualiser reduces a K-class classification problem to a K-armed linear
// contextual bandit problem using disjoint per-arm contexts.
//
// For a shared feature vector x of length F, arm k receives the row
// (I_K ⊗ x)[k], a vector of length K·F holding x at column offset k·F and
// zeros elsewhere. A single linear model over K·F weights restricted to the
// k-th block then acts as an independent linear model for arm k.
//
// The only state is the arm count, fixed at construction, so one instance may
// be shared by any number of goroutines. Each call allocates B·K²·F values for
// a batch of B instances; most of them are structural zeros, which matters for
// large K.
type Contextualiser struct {
	nArms  int         // number of arms (classes), K >= 1
	logger *zap.Logger // structured logger, never nil
}

// Option defines a functional option for configuring a Contextualiser
type Option func(*Contextualiser)

// WithLogger sets the logger used for construction and graph-building events
func WithLogger(logger *zap.Logger) Option {
	return func(c *Contextualiser) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewContextualiser creates a Contextualiser for nArms arms
func NewContextualiser(nArms int, options ...Option) (*Contextualiser, error) {
	if nArms < 1 {
		return nil, fmt.Errorf("%w: number of arms must be positive, got %d", ErrInvalidConfiguration, nArms)
	}

	c := &Contextualiser{
		nArms:  nArms,
		logger: zap.NewNop(),
	}

	for _, opt := range options {
		opt(c)
	}

	c.logger.Debug("contextualiser created", zap.Int("n_arms", nArms))

	return c, nil
}

// NArms returns the number of arms
func (c *Contextualiser) NArms() int {
	return c.nArms
}

// OutputDim returns the length of one disjoint context row for nFeatures shared features
func (c *Contextualiser) OutputDim(nFeatures int) int {
	return c.nArms * nFeatures
}

// Contextualise expands a (B, F) feature batch into B disjoint context
// matrices of shape (K, K·F). Row k of the b-th matrix equals X[b, :] in
// columns [k·F, (k+1)·F) and zero elsewhere. X is only read.
func (c *Contextualiser) Contextualise(X mat.Matrix) ([]*mat.Dense, error) {
	if X == nil {
		return nil, fmt.Errorf("%w: nil feature batch", ErrInvalidInput)
	}

	batch, nFeatures := X.Dims()
	if err := checkDims(batch, nFeatures); err != nil {
		return nil, err
	}

	// Fast path for raw-backed matrices avoids per-element interface calls.
	if rm, ok := X.(mat.RawMatrixer); ok {
		raw := rm.RawMatrix()
		out := make([]*mat.Dense, batch)
		for b := 0; b < batch; b++ {
			out[b] = c.expandRow(raw.Data[b*raw.Stride : b*raw.Stride+nFeatures])
		}
		return out, nil
	}

	row := make([]float64, nFeatures)
	out := make([]*mat.Dense, batch)
	for b := 0; b < batch; b++ {
		mat.Row(row, b, X)
		out[b] = c.expandRow(row)
	}
	return out, nil
}

// ContextualiseRows is Contextualise for a row-major slice batch.
// Every row must have the same width.
func (c *Contextualiser) ContextualiseRows(X [][]float64) ([]*mat.Dense, error) {
	batch := len(X)
	if batch == 0 {
		return nil, fmt.Errorf("%w: empty feature batch", ErrInvalidInput)
	}

	nFeatures := len(X[0])
	if err := checkDims(batch, nFeatures); err != nil {
		return nil, err
	}
	for b, row := range X {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("%w: row %d has %d features, row 0 has %d", ErrShapeMismatch, b, len(row), nFeatures)
		}
	}

	out := make([]*mat.Dense, batch)
	for b, row := range X {
		out[b] = c.expandRow(row)
	}
	return out, nil
}

// expandRow builds the (K, K·F) block-diagonal expansion of a single row.
// The row is copied, never retained.
func (c *Contextualiser) expandRow(x []float64) *mat.Dense {
	nFeatures := len(x)
	width := c.nArms * nFeatures
	data := make([]float64, c.nArms*width)
	for k := 0; k < c.nArms; k++ {
		copy(data[k*width+k*nFeatures:], x)
	}
	return mat.NewDense(c.nArms, width, data)
}

// PlacementMatrix returns the (F, K·K·F) 0/1 matrix P such that x·P, reshaped
// to (K, K·F), is the disjoint context of the row vector x. P holds K²·F²
// values and x·P costs O(K²·F²) per row, F times the cost of Contextualise,
// so it suits small F only. It panics if nFeatures is not positive, as gonum
// does for zero-sized matrices.
func (c *Contextualiser) PlacementMatrix(nFeatures int) *mat.Dense {
	width := c.nArms * nFeatures
	cols := c.nArms * width
	data := make([]float64, nFeatures*cols)
	for f := 0; f < nFeatures; f++ {
		for k := 0; k < c.nArms; k++ {
			data[f*cols+k*width+k*nFeatures+f] = 1
		}
	}
	return mat.NewDense(nFeatures, cols, data)
}

func checkDims(batch, nFeatures int) error {
	if batch == 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidInput)
	}
	if nFeatures == 0 {
		return fmt.Errorf("%w: feature width must be positive", ErrInvalidInput)
	}
	return nil
}
