package subspace

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/kailas-cloud/eigencurve/internal/domain"
	"github.com/kailas-cloud/eigencurve/internal/domain/curve"
)

func randomPoint(r *rand.Rand) curve.Point2 {
	return curve.Pt(float32(r.Float64()*1000-500), float32(r.Float64()*1000-500))
}

// randomCorpus returns a deterministic mix of lines, quadratics and cubics.
func randomCorpus(n int) []curve.Curve {
	r := rand.New(rand.NewPCG(7, 11))
	out := make([]curve.Curve, n)
	for i := range out {
		switch i % 3 {
		case 0:
			out[i] = curve.Line{P0: randomPoint(r), P1: randomPoint(r)}
		case 1:
			out[i] = curve.Quadratic{P0: randomPoint(r), P1: randomPoint(r), P2: randomPoint(r)}
		default:
			out[i] = curve.Cubic{P0: randomPoint(r), P1: randomPoint(r), P2: randomPoint(r), P3: randomPoint(r)}
		}
	}
	return out
}

func repeatedLineCorpus(n int) []curve.Curve {
	out := make([]curve.Curve, n)
	for i := range out {
		out[i] = curve.Line{P0: curve.Pt(0, 0), P1: curve.Pt(10, 0)}
	}
	return out
}

func mustTrain(t *testing.T, curves []curve.Curve, cfg TrainConfig) *Basis {
	t.Helper()
	b, err := Train(curves, cfg)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	return b
}

// --- Train ---

func TestTrain_EmptyCorpus(t *testing.T) {
	_, err := Train(nil, TrainConfig{NumPoints: 30})
	if !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
	_, err = Train([]curve.Curve{}, TrainConfig{NumPoints: 30})
	if !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestTrain_InvalidParameters(t *testing.T) {
	corpus := randomCorpus(6)
	tests := []struct {
		name string
		cfg  TrainConfig
	}{
		{"one sample", TrainConfig{NumPoints: 1}},
		{"zero samples", TrainConfig{NumPoints: 0}},
		{"negative rank", TrainConfig{NumPoints: 10, Rank: -1}},
		{"rank above curve count", TrainConfig{NumPoints: 10, Rank: 7}},
		{"rank above sample dimension", TrainConfig{NumPoints: 2, Rank: 5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Train(corpus, tc.cfg)
			if !errors.Is(err, domain.ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestTrain_DegenerateCorpus(t *testing.T) {
	corpus := []curve.Curve{
		curve.Line{P0: curve.Pt(0, 0), P1: curve.Pt(0, 0)},
		curve.Line{P0: curve.Pt(0, 0), P1: curve.Pt(0, 0)},
	}
	_, err := Train(corpus, TrainConfig{NumPoints: 5})
	if !errors.Is(err, domain.ErrDegenerateCorpus) {
		t.Fatalf("expected ErrDegenerateCorpus, got %v", err)
	}
}

func TestTrain_RepeatedLineIsRankOne(t *testing.T) {
	b := mustTrain(t, repeatedLineCorpus(50), TrainConfig{NumPoints: 3})

	if b.Rank() != 1 {
		t.Fatalf("expected rank 1, got %d", b.Rank())
	}
	rows, cols := b.Dims()
	if rows != 6 || cols != 1 {
		t.Fatalf("expected 6x1 basis, got %dx%d", rows, cols)
	}

	codec := NewCodec(b)
	e, err := codec.Encode(curve.Line{P0: curve.Pt(0, 0), P1: curve.Pt(10, 0)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	pts, err := codec.DecodePoints(e)
	if err != nil {
		t.Fatalf("DecodePoints: %v", err)
	}
	want := []curve.Point2{curve.Pt(0, 0), curve.Pt(5, 0), curve.Pt(10, 0)}
	for i := range want {
		if d := pts[i].Distance(want[i]); d > 1e-4 {
			t.Errorf("point %d = %v, want %v", i, pts[i], want[i])
		}
	}

	rowsEval, err := Evaluate(repeatedLineCorpus(50), b)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(rowsEval) != 1 || rowsEval[0].Error > 1e-6 {
		t.Errorf("expected one near-zero error row, got %+v", rowsEval)
	}
}

func TestTrain_Orthonormal(t *testing.T) {
	for _, cfg := range []TrainConfig{
		{NumPoints: 30},
		{NumPoints: 30, Rank: 10},
		{NumPoints: 4, Rank: 8},
		{NumPoints: 12, Cutoff: 1e-3},
	} {
		b := mustTrain(t, randomCorpus(40), cfg)
		if e := b.OrthonormalityError(); e > 1e-9 {
			t.Errorf("cfg %+v: BᵗB deviates from identity by %g", cfg, e)
		}
	}
}

func TestTrain_FixedRank(t *testing.T) {
	b := mustTrain(t, randomCorpus(40), TrainConfig{NumPoints: 30, Rank: 10})
	if b.Rank() != 10 {
		t.Fatalf("expected rank 10, got %d", b.Rank())
	}
	if b.NumPoints() != 30 {
		t.Fatalf("expected 30 sample points, got %d", b.NumPoints())
	}
	if len(b.SingularValues()) != 10 {
		t.Fatalf("expected 10 singular values, got %d", len(b.SingularValues()))
	}
}

func TestTrain_SingularValuesDescending(t *testing.T) {
	b := mustTrain(t, randomCorpus(40), TrainConfig{NumPoints: 30})
	sv := b.SingularValues()
	for i := 1; i < len(sv); i++ {
		if sv[i] > sv[i-1] {
			t.Fatalf("singular values not descending at %d: %v", i, sv)
		}
	}
	if sv[len(sv)-1] <= DefaultCutoff {
		t.Errorf("adaptive mode kept a value at or below the cutoff: %g", sv[len(sv)-1])
	}
}

func TestTrain_AdaptiveCutoffLimitsRank(t *testing.T) {
	corpus := randomCorpus(40)
	loose := mustTrain(t, corpus, TrainConfig{NumPoints: 30})
	strict := mustTrain(t, corpus, TrainConfig{NumPoints: 30, Cutoff: 1})

	if strict.Rank() > loose.Rank() {
		t.Errorf("higher cutoff produced larger rank: %d > %d", strict.Rank(), loose.Rank())
	}
	// cubic samples span at most 8 directions; only float32 rounding exceeds that
	if strict.Rank() > 8 {
		t.Errorf("expected at most 8 directions above cutoff 1, got %d", strict.Rank())
	}
}

// --- Codec ---

func TestCodec_FullRankRoundTrip(t *testing.T) {
	const numPoints = 30
	corpus := randomCorpus(20)
	b := mustTrain(t, corpus, TrainConfig{NumPoints: numPoints, Rank: min(2*numPoints, len(corpus))})
	codec := NewCodec(b)

	for i, c := range corpus {
		x, err := curve.SampleFlat(c, numPoints)
		if err != nil {
			t.Fatal(err)
		}
		e, err := codec.Encode(c)
		if err != nil {
			t.Fatalf("Encode %d: %v", i, err)
		}
		if len(e) != b.Rank() {
			t.Fatalf("embedding length %d, want %d", len(e), b.Rank())
		}
		y, err := codec.Decode(e)
		if err != nil {
			t.Fatalf("Decode %d: %v", i, err)
		}
		rel := floats.Distance(x, y, 2) / floats.Norm(x, 2)
		if rel > 1e-4 {
			t.Errorf("curve %d: relative reconstruction error %g", i, rel)
		}
	}
}

func TestCodec_ReconstructMatchesReconstructionError(t *testing.T) {
	const numPoints = 12
	corpus := randomCorpus(15)
	codec := NewCodec(mustTrain(t, corpus, TrainConfig{NumPoints: numPoints, Rank: 5}))

	for i, c := range corpus[:5] {
		x, err := curve.SampleFlat(c, numPoints)
		if err != nil {
			t.Fatal(err)
		}
		y, err := codec.Reconstruct(c)
		if err != nil {
			t.Fatalf("Reconstruct %d: %v", i, err)
		}
		want, err := codec.ReconstructionError(c)
		if err != nil {
			t.Fatalf("ReconstructionError %d: %v", i, err)
		}
		if got := floats.Distance(x, y, 2); math.Abs(got-want) > 1e-9*math.Max(1, want) {
			t.Errorf("curve %d: distance %g, ReconstructionError %g", i, got, want)
		}
	}
}

func TestCodec_DecodeDimensionMismatch(t *testing.T) {
	codec := NewCodec(mustTrain(t, randomCorpus(20), TrainConfig{NumPoints: 10, Rank: 4}))

	for _, e := range []Embedding{nil, {1, 2, 3}, {1, 2, 3, 4, 5}} {
		_, err := codec.Decode(e)
		if !errors.Is(err, domain.ErrDimensionMismatch) {
			t.Errorf("Decode(%v): expected ErrDimensionMismatch, got %v", e, err)
		}
	}
	_, err := codec.EncodeFlat([]float64{1, 2, 3})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("EncodeFlat: expected ErrDimensionMismatch, got %v", err)
	}
}

func TestCodec_NonFinite(t *testing.T) {
	codec := NewCodec(mustTrain(t, randomCorpus(20), TrainConfig{NumPoints: 10, Rank: 4}))
	huge := curve.Line{P0: curve.Pt(3e38, 0), P1: curve.Pt(-3e38, 0)}

	if _, err := codec.Encode(huge); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("Encode: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := codec.ReconstructionError(huge); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("ReconstructionError: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := codec.Decode(Embedding{math.Inf(1), 0, 0, 0}); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("Decode(+Inf): expected ErrInvalidParameter, got %v", err)
	}

	// finite in float64, out of range for float32 points
	big := Embedding{1e300, 1e300, 1e300, 1e300}
	if _, err := codec.Decode(big); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, err := codec.DecodeCurves(big); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("DecodeCurves: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := codec.DecodeBatch(context.Background(), []Embedding{big}); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("DecodeBatch: expected ErrInvalidParameter, got %v", err)
	}
}

func TestCodec_DecodeCurvesIsPolyline(t *testing.T) {
	const numPoints = 12
	corpus := randomCorpus(30)
	codec := NewCodec(mustTrain(t, corpus, TrainConfig{NumPoints: numPoints, Rank: 6}))

	e, err := codec.Encode(corpus[1])
	if err != nil {
		t.Fatal(err)
	}
	segs, err := codec.DecodeCurves(e)
	if err != nil {
		t.Fatalf("DecodeCurves: %v", err)
	}
	if len(segs) != numPoints-1 {
		t.Fatalf("expected %d segments, got %d", numPoints-1, len(segs))
	}
	for i, s := range segs {
		l, ok := s.(curve.Line)
		if !ok {
			t.Fatalf("segment %d is %T, want curve.Line", i, s)
		}
		if i > 0 && l.P0 != segs[i-1].(curve.Line).P1 {
			t.Errorf("segment %d does not start where segment %d ends", i, i-1)
		}
	}
}

func TestCodec_EncodeIsProjectionAboutOrigin(t *testing.T) {
	b := mustTrain(t, repeatedLineCorpus(5), TrainConfig{NumPoints: 3})
	codec := NewCodec(b)

	e1, err := codec.Encode(curve.Line{P0: curve.Pt(0, 0), P1: curve.Pt(10, 0)})
	if err != nil {
		t.Fatal(err)
	}
	e2, err := codec.Encode(curve.Line{P0: curve.Pt(0, 0), P1: curve.Pt(20, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(e2[0]-2*e1[0]) > 1e-9 {
		t.Errorf("expected linear projection, got %v and %v", e1, e2)
	}
}

func TestCodec_ReconstructionErrorShrinksWithRank(t *testing.T) {
	corpus := randomCorpus(40)
	b := mustTrain(t, corpus, TrainConfig{NumPoints: 20, Rank: 8})
	b2, err := b.Truncate(2)
	if err != nil {
		t.Fatal(err)
	}

	var full, low float64
	for _, c := range corpus {
		e, err := NewCodec(b).ReconstructionError(c)
		if err != nil {
			t.Fatal(err)
		}
		full += e
		e, err = NewCodec(b2).ReconstructionError(c)
		if err != nil {
			t.Fatal(err)
		}
		low += e
	}
	if full > low {
		t.Errorf("rank 8 error %g exceeds rank 2 error %g", full, low)
	}
}

func TestCodec_BatchMatchesSequential(t *testing.T) {
	corpus := randomCorpus(64)
	codec := NewCodec(mustTrain(t, corpus, TrainConfig{NumPoints: 16, Rank: 6}))

	embs, err := codec.EncodeBatch(context.Background(), corpus)
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	if len(embs) != len(corpus) {
		t.Fatalf("expected %d embeddings, got %d", len(corpus), len(embs))
	}
	for i, c := range corpus {
		e, err := codec.Encode(c)
		if err != nil {
			t.Fatal(err)
		}
		if !floats.Equal(e, embs[i]) {
			t.Fatalf("batch embedding %d differs from sequential", i)
		}
	}

	decoded, err := codec.DecodeBatch(context.Background(), embs)
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}
	for i, e := range embs {
		want, err := codec.DecodeCurves(e)
		if err != nil {
			t.Fatal(err)
		}
		if len(decoded[i]) != len(want) || decoded[i][0] != want[0] {
			t.Fatalf("batch decode %d differs from sequential", i)
		}
	}
}

func TestCodec_BatchEmpty(t *testing.T) {
	codec := NewCodec(mustTrain(t, randomCorpus(10), TrainConfig{NumPoints: 8, Rank: 3}))
	embs, err := codec.EncodeBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(embs) != 0 {
		t.Fatalf("expected no embeddings, got %d", len(embs))
	}
}

func TestCodec_BatchPropagatesItemError(t *testing.T) {
	codec := NewCodec(mustTrain(t, randomCorpus(10), TrainConfig{NumPoints: 8, Rank: 3}))

	_, err := codec.EncodeBatch(context.Background(), []curve.Curve{randomCorpus(1)[0], nil})
	if !errors.Is(err, domain.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}

	_, err = codec.DecodeBatch(context.Background(), []Embedding{{1, 2, 3}, {1}})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestCodec_BatchCanceled(t *testing.T) {
	codec := NewCodec(mustTrain(t, randomCorpus(10), TrainConfig{NumPoints: 8, Rank: 3}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := codec.EncodeBatch(ctx, randomCorpus(10))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// --- Evaluate ---

func TestEvaluate_Monotonic(t *testing.T) {
	corpus := randomCorpus(60)
	b := mustTrain(t, corpus, TrainConfig{NumPoints: 30})

	rows, err := Evaluate(corpus, b)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(rows) != b.Rank() {
		t.Fatalf("expected %d rows, got %d", b.Rank(), len(rows))
	}
	for i, r := range rows {
		if r.Rank != i+1 || r.ParamCount != i+1 {
			t.Errorf("row %d has rank %d params %d", i, r.Rank, r.ParamCount)
		}
		if i > 0 && r.Error > rows[i-1].Error {
			t.Errorf("error increased from rank %d (%g) to %d (%g)", i, rows[i-1].Error, i+1, r.Error)
		}
	}
}

func TestEvaluate_MatchesExplicitReconstruction(t *testing.T) {
	corpus := randomCorpus(30)
	b := mustTrain(t, corpus, TrainConfig{NumPoints: 10, Rank: 8})

	rows, err := Evaluate(corpus, b)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []int{1, 2, 4} {
		want, err := ReconstructionResidual(corpus, b, k)
		if err != nil {
			t.Fatal(err)
		}
		got := rows[k-1].Error
		if math.Abs(got-want) > 1e-6*math.Max(1, want) {
			t.Errorf("rank %d: Evaluate %g, explicit %g", k, got, want)
		}
	}
}

func TestEvaluate_FullRankPrecision(t *testing.T) {
	corpus := randomCorpus(6)
	b := mustTrain(t, corpus, TrainConfig{NumPoints: 10})
	if b.Rank() != len(corpus) {
		t.Fatalf("expected full rank %d, got %d", len(corpus), b.Rank())
	}

	rows, err := Evaluate(corpus, b)
	if err != nil {
		t.Fatal(err)
	}
	want, err := ReconstructionResidual(corpus, b, b.Rank())
	if err != nil {
		t.Fatal(err)
	}
	// samples are ~500 in magnitude, so only rounding of the projection remains
	got := rows[len(rows)-1].Error
	if got > 1e-8 {
		t.Errorf("full-rank error %g, want ~0", got)
	}
	if math.Abs(got-want) > 1e-10 {
		t.Errorf("full-rank error %g, explicit %g", got, want)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	b := mustTrain(t, randomCorpus(10), TrainConfig{NumPoints: 8, Rank: 3})

	if _, err := Evaluate(nil, b); !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Errorf("expected ErrEmptyCorpus, got %v", err)
	}
	if _, err := Evaluate(randomCorpus(3), nil); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

// --- Basis ---

func TestBasis_FromColumnsRoundTrip(t *testing.T) {
	b := mustTrain(t, randomCorpus(20), TrainConfig{NumPoints: 6, Rank: 4})

	restored, err := NewBasisFromColumns(b.Columns())
	if err != nil {
		t.Fatalf("NewBasisFromColumns: %v", err)
	}
	if restored.NumPoints() != 6 || restored.Rank() != 4 {
		t.Fatalf("restored basis has N=%d K=%d", restored.NumPoints(), restored.Rank())
	}
	for j := range 4 {
		if !floats.Equal(b.Column(j), restored.Column(j)) {
			t.Fatalf("column %d differs", j)
		}
	}
	if restored.SingularValues() != nil {
		t.Errorf("restored basis should not report singular values")
	}
}

func TestBasis_FromColumnsInvalid(t *testing.T) {
	tests := []struct {
		name string
		cols [][]float64
		want error
	}{
		{"no columns", nil, domain.ErrInvalidParameter},
		{"odd length", [][]float64{{1, 0, 0}}, domain.ErrDimensionMismatch},
		{"ragged", [][]float64{{1, 0, 0, 0}, {0, 1}}, domain.ErrDimensionMismatch},
		{"single point", [][]float64{{1, 0}}, domain.ErrInvalidParameter},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBasisFromColumns(tc.cols)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestBasis_Truncate(t *testing.T) {
	b := mustTrain(t, randomCorpus(20), TrainConfig{NumPoints: 6, Rank: 5})

	t3, err := b.Truncate(3)
	if err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if t3.Rank() != 3 || len(t3.SingularValues()) != 3 {
		t.Fatalf("expected rank 3, got %d", t3.Rank())
	}
	if !floats.Equal(t3.Column(2), b.Column(2)) {
		t.Errorf("truncated basis changed column 2")
	}
	for _, k := range []int{0, 6} {
		if _, err := b.Truncate(k); !errors.Is(err, domain.ErrInvalidParameter) {
			t.Errorf("Truncate(%d): expected ErrInvalidParameter, got %v", k, err)
		}
	}
}
