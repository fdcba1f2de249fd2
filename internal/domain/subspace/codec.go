package subspace

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/kailas-cloud/eigencurve/internal/domain"
	"github.com/kailas-cloud/eigencurve/internal/domain/curve"
)

// Embedding is a curve's coefficient vector relative to one Basis. It carries
// no reference to that basis; callers keep the pairing.
type Embedding []float64

// Encoder maps curves to embeddings.
type Encoder interface {
	Encode(c curve.Curve) (Embedding, error)
}

// Decoder maps embeddings back to curves.
type Decoder interface {
	DecodeCurves(e Embedding) ([]curve.Curve, error)
}

var (
	_ Encoder = (*Codec)(nil)
	_ Decoder = (*Codec)(nil)
)

// Codec projects curves onto a fixed basis and reconstructs them.
// Reconstruction is always a polyline through the decoded samples, whatever
// the original segment kind was.
type Codec struct {
	basis *Basis
}

// NewCodec creates a codec over b.
func NewCodec(b *Basis) *Codec {
	return &Codec{basis: b}
}

// Basis returns the basis the codec projects onto.
func (c *Codec) Basis() *Basis { return c.basis }

// Encode samples cv, flattens it and returns Bᵗ·x. No centering is applied.
func (c *Codec) Encode(cv curve.Curve) (Embedding, error) {
	x, err := curve.SampleFlat(cv, c.basis.numPoints)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	e := c.project(x)
	if err := checkFinite("embedding", e); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return e, nil
}

// EncodeFlat projects an already flattened sample vector of length 2N.
func (c *Codec) EncodeFlat(x []float64) (Embedding, error) {
	rows, _ := c.basis.Dims()
	if len(x) != rows {
		return nil, domain.NewDimensionMismatch("flattened samples", rows, len(x))
	}
	e := c.project(x)
	if err := checkFinite("embedding", e); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return e, nil
}

func (c *Codec) project(x []float64) Embedding {
	var e mat.VecDense
	e.MulVec(c.basis.u.T(), mat.NewVecDense(len(x), x))
	return Embedding(mat.Col(nil, 0, &e))
}

// Decode returns B·e, the reconstructed flattened sample vector of length 2N.
func (c *Codec) Decode(e Embedding) ([]float64, error) {
	k := c.basis.Rank()
	if len(e) != k {
		return nil, domain.NewDimensionMismatch("embedding", k, len(e))
	}
	var x mat.VecDense
	x.MulVec(c.basis.u, mat.NewVecDense(k, e))
	out := mat.Col(nil, 0, &x)
	if err := checkFinite("decoded sample", out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}

// DecodePoints decodes e and regroups the result into N points. Values
// beyond the float32 range fail instead of becoming infinite points.
func (c *Codec) DecodePoints(e Embedding) ([]curve.Point2, error) {
	x, err := c.Decode(e)
	if err != nil {
		return nil, err
	}
	pts, err := curve.Unflatten(x)
	if err != nil {
		return nil, err
	}
	for i, p := range pts {
		if p.IsInf() || p.IsNaN() {
			return nil, fmt.Errorf("decode: %w: point %d overflows float32", domain.ErrInvalidParameter, i)
		}
	}
	return pts, nil
}

// DecodeCurves decodes e into N−1 consecutive line segments.
func (c *Codec) DecodeCurves(e Embedding) ([]curve.Curve, error) {
	pts, err := c.DecodePoints(e)
	if err != nil {
		return nil, err
	}
	return curve.Polyline(pts), nil
}

// Reconstruct returns Decode(Encode(cv)), the flattened samples of cv as
// seen through the basis.
func (c *Codec) Reconstruct(cv curve.Curve) ([]float64, error) {
	e, err := c.Encode(cv)
	if err != nil {
		return nil, err
	}
	return c.Decode(e)
}

// ReconstructionError returns ‖B·Bᵗ·x − x‖ for the flattened samples x of cv.
func (c *Codec) ReconstructionError(cv curve.Curve) (float64, error) {
	x, err := curve.SampleFlat(cv, c.basis.numPoints)
	if err != nil {
		return 0, fmt.Errorf("reconstruction error: %w", err)
	}
	e := c.project(x)
	if err := checkFinite("embedding", e); err != nil {
		return 0, fmt.Errorf("reconstruction error: %w", err)
	}
	y, err := c.Decode(e)
	if err != nil {
		return 0, err
	}
	d := floats.Distance(y, x, 2)
	if math.IsInf(d, 0) || math.IsNaN(d) {
		return 0, fmt.Errorf("reconstruction error: %w: distance is not finite", domain.ErrInvalidParameter)
	}
	return d, nil
}

// EncodeBatch encodes curves concurrently. Output order matches input order.
func (c *Codec) EncodeBatch(ctx context.Context, curves []curve.Curve) ([]Embedding, error) {
	out := make([]Embedding, len(curves))
	err := forEach(ctx, len(curves), func(i int) error {
		e, err := c.Encode(curves[i])
		if err != nil {
			return fmt.Errorf("curve %d: %w", i, err)
		}
		out[i] = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeBatch decodes embeddings concurrently into polylines. Output order matches input order.
func (c *Codec) DecodeBatch(ctx context.Context, embeddings []Embedding) ([][]curve.Curve, error) {
	out := make([][]curve.Curve, len(embeddings))
	err := forEach(ctx, len(embeddings), func(i int) error {
		cs, err := c.DecodeCurves(embeddings[i])
		if err != nil {
			return fmt.Errorf("embedding %d: %w", i, err)
		}
		out[i] = cs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkFinite fails with ErrInvalidParameter on the first NaN or infinity in v.
func checkFinite(what string, v []float64) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %s %d is not finite", domain.ErrInvalidParameter, what, i)
		}
	}
	return nil
}

// forEach runs fn for 0..n-1 on at most GOMAXPROCS goroutines and returns the first error.
func forEach(ctx context.Context, n int, fn func(i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range n {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err //nolint:wrapcheck // cancellation is returned as is
			}
			return fn(i)
		})
	}
	return g.Wait() //nolint:wrapcheck // item errors are already wrapped
}
