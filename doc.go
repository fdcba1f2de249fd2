// Package eigencurve learns a linear subspace for 2D Bézier curves and
// encodes any line, quadratic or cubic segment as a short coefficient vector.
//
// # Offline: train a basis
//
//	curves, _ := eigencurve.LoadFont("Roboto.ttf", "ABCDEFG")
//	basis, _ := eigencurve.Train(curves, eigencurve.TrainConfig{NumPoints: 30})
//	codec := eigencurve.NewCodec(basis)
//	e, _ := codec.Encode(eigencurve.Line{P0: eigencurve.Pt(0, 0), P1: eigencurve.Pt(10, 0)})
//	poly, _ := codec.DecodeCurves(e) // N-1 line segments
//
// # Online: a client over the active model
//
//	client, _ := eigencurve.New(ctx, eigencurve.WithRedis("localhost:6379", ""))
//	_ = client.SaveModel(ctx, "latin", data)
//	_ = client.Activate(ctx, "latin")
//	embs, _ := client.Encode(ctx, curves)
//
// Decoding always yields a polyline through the reconstructed samples; the
// control points of the original segment are not recovered.
package eigencurve
