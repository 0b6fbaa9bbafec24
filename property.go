package ngtgo

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/ngtgo/distance"
	"github.com/hupe1980/ngtgo/internal/engine"
	"github.com/hupe1980/ngtgo/internal/graph"
	"github.com/hupe1980/ngtgo/internal/objectspace"
	"github.com/hupe1980/ngtgo/internal/resource"
	"github.com/hupe1980/ngtgo/model"
)

// Property defaults.
const (
	DefaultEdgeSizeForCreation = 10
	DefaultEdgeSizeForSearch   = 40
	DefaultBuildEpsilon        = 0.1
	DefaultSeedSize            = 10
	DefaultTreeLeafSize        = 32
)

// Property is the configuration of an index.
//
// A Property is copied into the index on creation; later changes to the
// value passed in do not affect the index.
type Property struct {
	dimension           int32
	objectType          model.ObjectType
	distanceType        distance.Metric
	edgeSizeForCreation int16
	edgeSizeForSearch   int16
	edgeSizeLimit       int16 // 0 means twice the creation size
	buildEpsilon        float32
	seedSize            int16
	treeLeafSize        int16
	reciprocalEdges     bool
}

// NewProperty returns a property with default values. The dimension must
// be set before an index can be created.
func NewProperty() *Property {
	return &Property{
		objectType:          model.ObjectTypeFloat,
		distanceType:        distance.MetricL2,
		edgeSizeForCreation: DefaultEdgeSizeForCreation,
		edgeSizeForSearch:   DefaultEdgeSizeForSearch,
		buildEpsilon:        DefaultBuildEpsilon,
		seedSize:            DefaultSeedSize,
		treeLeafSize:        DefaultTreeLeafSize,
		reciprocalEdges:     true,
	}
}

func (p *Property) clone() *Property {
	c := *p
	return &c
}

// Dimension returns the number of elements per object.
func (p *Property) Dimension() int { return int(p.dimension) }

// SetDimension sets the number of elements per object.
func (p *Property) SetDimension(dim int) error {
	if dim <= 0 || dim > math.MaxInt32 {
		return fmt.Errorf("%w: dimension %d", ErrInvalidArgument, dim)
	}
	p.dimension = int32(dim)
	return nil
}

// ObjectType returns the element type of stored objects.
func (p *Property) ObjectType() model.ObjectType { return p.objectType }

// SetObjectType sets the element type of stored objects.
func (p *Property) SetObjectType(t model.ObjectType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: object type %v", ErrInvalidArgument, t)
	}
	p.objectType = t
	return nil
}

// DistanceType returns the metric objects are compared with.
func (p *Property) DistanceType() distance.Metric { return p.distanceType }

// SetDistanceType sets the distance metric. Compatibility with the object
// type is checked by Validate.
func (p *Property) SetDistanceType(m distance.Metric) error {
	if !m.Valid() {
		return fmt.Errorf("%w: distance type %v", ErrInvalidArgument, m)
	}
	p.distanceType = m
	return nil
}

// EdgeSizeForCreation returns the number of edges given to a new node.
func (p *Property) EdgeSizeForCreation() int { return int(p.edgeSizeForCreation) }

// SetEdgeSizeForCreation sets the number of edges given to a new node.
func (p *Property) SetEdgeSizeForCreation(n int) error {
	if err := checkInt16("edge size for creation", n, 1); err != nil {
		return err
	}
	p.edgeSizeForCreation = int16(n)
	return nil
}

// EdgeSizeForSearch returns the number of edges expanded per node during a search.
func (p *Property) EdgeSizeForSearch() int { return int(p.edgeSizeForSearch) }

// SetEdgeSizeForSearch sets the number of leading edges expanded per node
// during a search. 0 expands all edges.
func (p *Property) SetEdgeSizeForSearch(n int) error {
	if err := checkInt16("edge size for search", n, 0); err != nil {
		return err
	}
	p.edgeSizeForSearch = int16(n)
	return nil
}

// EdgeSizeLimit returns the effective bound of stored edges per node.
func (p *Property) EdgeSizeLimit() int {
	if p.edgeSizeLimit == 0 {
		return 2 * int(p.edgeSizeForCreation)
	}
	return int(p.edgeSizeLimit)
}

// SetEdgeSizeLimit bounds the stored edges per node. 0 restores the
// default of twice the creation size.
func (p *Property) SetEdgeSizeLimit(n int) error {
	if err := checkInt16("edge size limit", n, 0); err != nil {
		return err
	}
	p.edgeSizeLimit = int16(n)
	return nil
}

// BuildEpsilon returns the exploration slack used while linking new nodes.
func (p *Property) BuildEpsilon() float32 { return p.buildEpsilon }

// SetBuildEpsilon sets the exploration slack of the neighbor search run
// for new nodes.
func (p *Property) SetBuildEpsilon(eps float32) error {
	if eps < 0 || math.IsNaN(float64(eps)) || math.IsInf(float64(eps), 0) {
		return fmt.Errorf("%w: build epsilon %v", ErrInvalidArgument, eps)
	}
	p.buildEpsilon = eps
	return nil
}

// SeedSize returns the number of seeds taken from the tree per search.
func (p *Property) SeedSize() int { return int(p.seedSize) }

// SetSeedSize sets the number of seeds taken from the tree per search.
func (p *Property) SetSeedSize(n int) error {
	if err := checkInt16("seed size", n, 1); err != nil {
		return err
	}
	p.seedSize = int16(n)
	return nil
}

// TreeLeafSize returns the number of IDs a tree leaf holds before it splits.
func (p *Property) TreeLeafSize() int { return int(p.treeLeafSize) }

// SetTreeLeafSize sets the number of IDs a tree leaf holds before it splits.
func (p *Property) SetTreeLeafSize(n int) error {
	if err := checkInt16("tree leaf size", n, 2); err != nil {
		return err
	}
	p.treeLeafSize = int16(n)
	return nil
}

// ReciprocalEdges reports whether back edges are added on insertion.
func (p *Property) ReciprocalEdges() bool { return p.reciprocalEdges }

// SetReciprocalEdges toggles the back edges added on insertion.
func (p *Property) SetReciprocalEdges(on bool) { p.reciprocalEdges = on }

// Validate checks the property as a whole.
func (p *Property) Validate() error {
	if p.dimension <= 0 {
		return fmt.Errorf("%w: dimension not set", ErrInvalidArgument)
	}
	if err := distance.Validate(p.distanceType, p.objectType); err != nil {
		return err
	}
	if p.EdgeSizeLimit() < int(p.edgeSizeForCreation) {
		return fmt.Errorf("%w: edge size limit %d below creation size %d",
			ErrInvalidArgument, p.EdgeSizeLimit(), p.edgeSizeForCreation)
	}
	return nil
}

func (p *Property) engineConfig(res *resource.Controller) engine.Config {
	return engine.Config{
		Space: objectspace.Config{
			Dimension:  int(p.dimension),
			ObjectType: p.objectType,
			Metric:     p.distanceType,
			Resources:  res,
		},
		Graph: graph.Config{
			EdgeSizeForCreation: int(p.edgeSizeForCreation),
			EdgeSizeLimit:       p.EdgeSizeLimit(),
			ReciprocalEdges:     p.reciprocalEdges,
		},
		BuildEpsilon: p.buildEpsilon,
		SeedSize:     int(p.seedSize),
		TreeLeafSize: int(p.treeLeafSize),
	}
}

func checkInt16(name string, n, lo int) error {
	if n < lo || n > math.MaxInt16 {
		return fmt.Errorf("%w: %s %d", ErrInvalidArgument, name, n)
	}
	return nil
}

const propertyFileVersion = 1

// propertyFile is the YAML form of a property together with the identity
// of the index it belongs to.
type propertyFile struct {
	Version             int              `yaml:"version"`
	UUID                string           `yaml:"uuid"`
	CreatedAt           time.Time        `yaml:"created_at"`
	Dimension           int              `yaml:"dimension"`
	ObjectType          model.ObjectType `yaml:"object_type"`
	DistanceType        distance.Metric  `yaml:"distance_type"`
	EdgeSizeForCreation int              `yaml:"edge_size_for_creation"`
	EdgeSizeForSearch   int              `yaml:"edge_size_for_search"`
	EdgeSizeLimit       int              `yaml:"edge_size_limit"`
	BuildEpsilon        float32          `yaml:"build_epsilon"`
	SeedSize            int              `yaml:"seed_size"`
	TreeLeafSize        int              `yaml:"tree_leaf_size"`
	ReciprocalEdges     bool             `yaml:"reciprocal_edges"`
}

// metadata identifies a persisted index.
type metadata struct {
	uuid      uuid.UUID
	createdAt time.Time
}

func newMetadata() metadata {
	return metadata{uuid: uuid.New(), createdAt: time.Now().UTC().Truncate(time.Second)}
}

func fileFromProperty(p *Property, meta metadata) propertyFile {
	return propertyFile{
		Version:             propertyFileVersion,
		UUID:                meta.uuid.String(),
		CreatedAt:           meta.createdAt,
		Dimension:           p.Dimension(),
		ObjectType:          p.objectType,
		DistanceType:        p.distanceType,
		EdgeSizeForCreation: p.EdgeSizeForCreation(),
		EdgeSizeForSearch:   p.EdgeSizeForSearch(),
		EdgeSizeLimit:       int(p.edgeSizeLimit),
		BuildEpsilon:        p.buildEpsilon,
		SeedSize:            p.SeedSize(),
		TreeLeafSize:        p.TreeLeafSize(),
		ReciprocalEdges:     p.reciprocalEdges,
	}
}

func (f *propertyFile) property() (*Property, error) {
	p := NewProperty()
	p.SetReciprocalEdges(f.ReciprocalEdges)
	for _, err := range []error{
		p.SetDimension(f.Dimension),
		p.SetObjectType(f.ObjectType),
		p.SetDistanceType(f.DistanceType),
		p.SetEdgeSizeForCreation(f.EdgeSizeForCreation),
		p.SetEdgeSizeForSearch(f.EdgeSizeForSearch),
		p.SetEdgeSizeLimit(f.EdgeSizeLimit),
		p.SetBuildEpsilon(f.BuildEpsilon),
		p.SetSeedSize(f.SeedSize),
		p.SetTreeLeafSize(f.TreeLeafSize),
	} {
		if err != nil {
			return nil, err
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func marshalProperty(p *Property, meta metadata) ([]byte, error) {
	f := fileFromProperty(p, meta)
	return yaml.Marshal(&f)
}

// unmarshalProperty parses and validates the property file of an index.
func unmarshalProperty(data []byte) (*Property, metadata, error) {
	var f propertyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, metadata{}, err
	}
	if f.Version != propertyFileVersion {
		return nil, metadata{}, fmt.Errorf("unsupported property file version %d", f.Version)
	}
	id, err := uuid.Parse(f.UUID)
	if err != nil {
		return nil, metadata{}, fmt.Errorf("index uuid: %w", err)
	}
	p, err := f.property()
	if err != nil {
		return nil, metadata{}, err
	}
	return p, metadata{uuid: id, createdAt: f.CreatedAt}, nil
}

// LoadPropertyYAML reads a hand-written property. Keys that are absent keep
// their default values and identity fields are ignored.
func LoadPropertyYAML(data []byte) (*Property, error) {
	f := fileFromProperty(NewProperty(), metadata{})
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	p, err := f.property()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return p, nil
}

// MarshalYAML renders the property in the format read by LoadPropertyYAML.
func (p *Property) MarshalYAML() (any, error) {
	f := fileFromProperty(p, metadata{})
	return struct {
		Dimension           int              `yaml:"dimension"`
		ObjectType          model.ObjectType `yaml:"object_type"`
		DistanceType        distance.Metric  `yaml:"distance_type"`
		EdgeSizeForCreation int              `yaml:"edge_size_for_creation"`
		EdgeSizeForSearch   int              `yaml:"edge_size_for_search"`
		EdgeSizeLimit       int              `yaml:"edge_size_limit"`
		BuildEpsilon        float32          `yaml:"build_epsilon"`
		SeedSize            int              `yaml:"seed_size"`
		TreeLeafSize        int              `yaml:"tree_leaf_size"`
		ReciprocalEdges     bool             `yaml:"reciprocal_edges"`
	}{
		f.Dimension, f.ObjectType, f.DistanceType, f.EdgeSizeForCreation, f.EdgeSizeForSearch,
		f.EdgeSizeLimit, f.BuildEpsilon, f.SeedSize, f.TreeLeafSize, f.ReciprocalEdges,
	}, nil
}
