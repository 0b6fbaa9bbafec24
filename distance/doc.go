// Package distance provides the distance metrics supported by the index.
//
// Float32 kernels are backed by github.com/viterin/vek/vek32, which uses
// AVX2 when available. Uint8 and Float16 kernels are plain loops.
//
// # Supported Metrics
//
//   - MetricL1: Manhattan distance
//   - MetricL2: Euclidean distance
//   - MetricAngle: arccos of the cosine similarity, in radians
//   - MetricCosine: 1 minus the cosine similarity
//   - MetricHamming: count of differing bits (Uint8 only)
//   - MetricJaccard: 1 minus the bitwise Jaccard similarity (Uint8 only)
//   - MetricNormalizedAngle, MetricNormalizedCosine: Angle and Cosine over
//     vectors normalized on insertion (float types only)
//
// Every function returns a non-negative value and assumes both inputs
// have the same length.
package distance
