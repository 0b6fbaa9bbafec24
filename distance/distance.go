package distance

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strings"

	"github.com/hupe1980/ngtgo/model"
	"github.com/viterin/vek/vek32"
	"github.com/x448/float16"
)

// ErrUnsupportedMetricForType is returned when a metric cannot be used
// with an object type.
var ErrUnsupportedMetricForType = errors.New("distance metric not supported for object type")

// Metric represents the distance metric used for object comparison.
type Metric uint8

const (
	MetricL1 Metric = iota
	MetricL2
	MetricAngle
	MetricHamming
	MetricJaccard
	MetricCosine
	MetricNormalizedAngle
	MetricNormalizedCosine
)

var metricNames = [...]string{
	MetricL1:               "L1",
	MetricL2:               "L2",
	MetricAngle:            "Angle",
	MetricHamming:          "Hamming",
	MetricJaccard:          "Jaccard",
	MetricCosine:           "Cosine",
	MetricNormalizedAngle:  "NormalizedAngle",
	MetricNormalizedCosine: "NormalizedCosine",
}

func (m Metric) String() string {
	if int(m) < len(metricNames) {
		return metricNames[m]
	}
	return fmt.Sprintf("Unknown(%d)", m)
}

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	return int(m) < len(metricNames)
}

// Normalized reports whether objects must be L2-normalized on insertion.
func (m Metric) Normalized() bool {
	return m == MetricNormalizedAngle || m == MetricNormalizedCosine
}

// ParseMetric parses a metric name such as "l2" or "normalized-cosine".
func ParseMetric(s string) (Metric, error) {
	key := strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(s))
	for i, name := range metricNames {
		if strings.ToLower(name) == key {
			return Metric(i), nil
		}
	}
	return 0, fmt.Errorf("unknown distance metric %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("unknown distance metric %d", m)
	}
	return []byte(strings.ToLower(m.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Metric) UnmarshalText(text []byte) error {
	v, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Validate reports whether m can be used with objects of type t.
func Validate(m Metric, t model.ObjectType) error {
	if !m.Valid() || !t.Valid() {
		return fmt.Errorf("%w: %v on %v", ErrUnsupportedMetricForType, m, t)
	}
	switch m {
	case MetricHamming, MetricJaccard:
		if t != model.ObjectTypeUint8 {
			return fmt.Errorf("%w: %v on %v", ErrUnsupportedMetricForType, m, t)
		}
	case MetricNormalizedAngle, MetricNormalizedCosine:
		if !t.IsFloat() {
			return fmt.Errorf("%w: %v on %v", ErrUnsupportedMetricForType, m, t)
		}
	}
	return nil
}

// Func is a distance function over float32 vectors.
type Func func(a, b []float32) float32

// FuncUint8 is a distance function over byte vectors.
type FuncUint8 func(a, b []uint8) float32

// FuncFloat16 is a distance function over raw half precision vectors.
type FuncFloat16 func(a, b []uint16) float32

// Provider returns the float32 distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricL1:
		return L1, nil
	case MetricL2:
		return L2, nil
	case MetricAngle:
		return Angle, nil
	case MetricCosine:
		return Cosine, nil
	case MetricNormalizedAngle:
		return NormalizedAngle, nil
	case MetricNormalizedCosine:
		return NormalizedCosine, nil
	default:
		return nil, fmt.Errorf("%w: %v on %v", ErrUnsupportedMetricForType, m, model.ObjectTypeFloat)
	}
}

// ProviderUint8 returns the byte distance function for the given metric.
func ProviderUint8(m Metric) (FuncUint8, error) {
	switch m {
	case MetricL1:
		return L1Uint8, nil
	case MetricL2:
		return L2Uint8, nil
	case MetricAngle:
		return AngleUint8, nil
	case MetricCosine:
		return CosineUint8, nil
	case MetricHamming:
		return Hamming, nil
	case MetricJaccard:
		return Jaccard, nil
	default:
		return nil, fmt.Errorf("%w: %v on %v", ErrUnsupportedMetricForType, m, model.ObjectTypeUint8)
	}
}

// ProviderFloat16 returns the half precision distance function for the given metric.
func ProviderFloat16(m Metric) (FuncFloat16, error) {
	switch m {
	case MetricL1:
		return L1Float16, nil
	case MetricL2:
		return L2Float16, nil
	case MetricAngle:
		return func(a, b []uint16) float32 { return angleFromCosine(cosineFloat16(a, b)) }, nil
	case MetricCosine:
		return func(a, b []uint16) float32 { return cosineDistance(cosineFloat16(a, b)) }, nil
	case MetricNormalizedAngle:
		return func(a, b []uint16) float32 { return angleFromCosine(dotFloat16(a, b)) }, nil
	case MetricNormalizedCosine:
		return func(a, b []uint16) float32 { return cosineDistance(dotFloat16(a, b)) }, nil
	default:
		return nil, fmt.Errorf("%w: %v on %v", ErrUnsupportedMetricForType, m, model.ObjectTypeFloat16)
	}
}

// L1 calculates the Manhattan distance.
func L1(a, b []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	return vek32.ManhattanDistance(a, b)
}

// L2 calculates the Euclidean distance.
func L2(a, b []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	return vek32.Distance(a, b)
}

// Dot calculates the dot product of two vectors.
func Dot(a, b []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	return vek32.Dot(a, b)
}

// Angle returns the angle between a and b in radians.
func Angle(a, b []float32) float32 {
	return angleFromCosine(cosineSimilarity(a, b))
}

// Cosine returns 1 minus the cosine similarity of a and b.
func Cosine(a, b []float32) float32 {
	return cosineDistance(cosineSimilarity(a, b))
}

// NormalizedAngle is Angle for unit vectors.
func NormalizedAngle(a, b []float32) float32 {
	return angleFromCosine(Dot(a, b))
}

// NormalizedCosine is Cosine for unit vectors.
func NormalizedCosine(a, b []float32) float32 {
	return cosineDistance(Dot(a, b))
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 {
		return 1
	}
	na, nb := vek32.Norm(a), vek32.Norm(b)
	return similarity(vek32.Dot(a, b), na, nb)
}

// similarity treats two zero vectors as identical and a zero vector as
// orthogonal to everything else.
func similarity(dot, na, nb float32) float32 {
	switch {
	case na == 0 && nb == 0:
		return 1
	case na == 0 || nb == 0:
		return 0
	}
	return dot / (na * nb)
}

func angleFromCosine(c float32) float32 {
	if c >= 1 {
		return 0
	}
	if c <= -1 {
		return math.Pi
	}
	return float32(math.Acos(float64(c)))
}

func cosineDistance(c float32) float32 {
	d := 1 - c
	if d < 0 {
		return 0
	}
	return d
}

// L1Uint8 calculates the Manhattan distance between byte vectors.
func L1Uint8(a, b []uint8) float32 {
	var sum int64
	for i := range a {
		d := int64(a[i]) - int64(b[i])
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return float32(sum)
}

// L2Uint8 calculates the Euclidean distance between byte vectors.
func L2Uint8(a, b []uint8) float32 {
	var sum int64
	for i := range a {
		d := int64(a[i]) - int64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(float64(sum)))
}

// AngleUint8 returns the angle between byte vectors in radians.
func AngleUint8(a, b []uint8) float32 {
	return angleFromCosine(cosineUint8(a, b))
}

// CosineUint8 returns 1 minus the cosine similarity of byte vectors.
func CosineUint8(a, b []uint8) float32 {
	return cosineDistance(cosineUint8(a, b))
}

func cosineUint8(a, b []uint8) float32 {
	var dot, na, nb int64
	for i := range a {
		x, y := int64(a[i]), int64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return similarity(float32(dot), float32(math.Sqrt(float64(na))), float32(math.Sqrt(float64(nb))))
}

// Hamming counts the differing bits of a and b.
func Hamming(a, b []uint8) float32 {
	var n int
	for i := range a {
		n += bits.OnesCount8(a[i] ^ b[i])
	}
	return float32(n)
}

// Jaccard returns 1 - |a AND b| / |a OR b| over the bits of a and b.
// Two all-zero vectors are at distance 0.
func Jaccard(a, b []uint8) float32 {
	var inter, union int
	for i := range a {
		inter += bits.OnesCount8(a[i] & b[i])
		union += bits.OnesCount8(a[i] | b[i])
	}
	if union == 0 {
		return 0
	}
	return 1 - float32(inter)/float32(union)
}

// L1Float16 calculates the Manhattan distance between half precision vectors.
func L1Float16(a, b []uint16) float32 {
	var sum float32
	for i := range a {
		d := float16.Frombits(a[i]).Float32() - float16.Frombits(b[i]).Float32()
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}

// L2Float16 calculates the Euclidean distance between half precision vectors.
func L2Float16(a, b []uint16) float32 {
	var sum float32
	for i := range a {
		d := float16.Frombits(a[i]).Float32() - float16.Frombits(b[i]).Float32()
		sum += d * d
	}
	return float32(math.Sqrt(float64(sum)))
}

func dotFloat16(a, b []uint16) float32 {
	var dot float32
	for i := range a {
		dot += float16.Frombits(a[i]).Float32() * float16.Frombits(b[i]).Float32()
	}
	return dot
}

func cosineFloat16(a, b []uint16) float32 {
	var dot, na, nb float32
	for i := range a {
		x, y := float16.Frombits(a[i]).Float32(), float16.Frombits(b[i]).Float32()
		dot += x * y
		na += x * x
		nb += y * y
	}
	return similarity(dot, float32(math.Sqrt(float64(na))), float32(math.Sqrt(float64(nb))))
}

// Normalize L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func Normalize(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm := vek32.Norm(v)
	if norm == 0 || math.IsNaN(float64(norm)) {
		return false
	}
	inv := 1 / norm
	for i := range v {
		v[i] *= inv
	}
	return true
}
