package recording

import (
	"github.com/golang/geo/r3"

	"go.viam.com/simrecord/spatialmath"
)

// Archetype kinds as they appear on the wire.
const (
	KindScalars       = "scalars"
	KindTransform3D   = "transform3d"
	KindMesh3D        = "mesh3d"
	KindBox3D         = "box3d"
	KindSphere3D      = "sphere3d"
	KindCylinder3D    = "cylinder3d"
	KindLinkHierarchy = "link_hierarchy"
)

// Archetype is a piece of data that can be logged at an entity path.
type Archetype interface {
	Kind() string
}

// Scalars is one sample of one or more scalar time series.
type Scalars struct {
	Values []float64 `json:"values"`
}

// NewScalars copies values into a Scalars archetype.
func NewScalars(values ...float64) *Scalars {
	out := make([]float64, len(values))
	copy(out, values)
	return &Scalars{Values: out}
}

// Kind implements Archetype.
func (*Scalars) Kind() string { return KindScalars }

// Transform3D places an entity relative to its parent entity.
type Transform3D struct {
	Translation r3.Vector `json:"translation"`
	// Rotation is a unit quaternion in x, y, z, w order.
	Rotation [4]float64 `json:"rotation_xyzw"`
	Scale    float64    `json:"scale,omitempty"`
}

// NewTransform3D converts a pose into a transform.
func NewTransform3D(p spatialmath.Pose) *Transform3D {
	q := spatialmath.Quaternion(spatialmath.Normalize(p.Orientation().Quaternion()))
	return &Transform3D{Translation: p.Point(), Rotation: q.XYZW()}
}

// Kind implements Archetype.
func (*Transform3D) Kind() string { return KindTransform3D }

// Pose converts the transform back into a pose, ignoring scale.
func (t *Transform3D) Pose() spatialmath.Pose {
	return spatialmath.NewPose(t.Translation,
		spatialmath.NewQuaternion(t.Rotation[3], t.Rotation[0], t.Rotation[1], t.Rotation[2]))
}

// Mesh3D references a mesh asset on disk.
type Mesh3D struct {
	Path  string    `json:"path"`
	Scale r3.Vector `json:"scale"`
}

// Kind implements Archetype.
func (*Mesh3D) Kind() string { return KindMesh3D }

// Box3D is a box primitive centered on its entity.
type Box3D struct {
	HalfSize r3.Vector `json:"half_size"`
}

// Kind implements Archetype.
func (*Box3D) Kind() string { return KindBox3D }

// Sphere3D is a sphere primitive centered on its entity.
type Sphere3D struct {
	Radius float64 `json:"radius"`
}

// Kind implements Archetype.
func (*Sphere3D) Kind() string { return KindSphere3D }

// Cylinder3D is a cylinder primitive aligned with its entity's z axis.
type Cylinder3D struct {
	Radius float64 `json:"radius"`
	Length float64 `json:"length"`
}

// Kind implements Archetype.
func (*Cylinder3D) Kind() string { return KindCylinder3D }

// LinkHierarchy records where a robot link sits in its kinematic tree.
type LinkHierarchy struct {
	Link      string `json:"link"`
	Parent    string `json:"parent,omitempty"`
	Joint     string `json:"joint,omitempty"`
	JointType string `json:"joint_type,omitempty"`
	// Index is the link's position in the robot's ordered link list.
	Index int `json:"index"`
}

// Kind implements Archetype.
func (*LinkHierarchy) Kind() string { return KindLinkHierarchy }

var archetypeFactories = map[string]func() Archetype{
	KindScalars:       func() Archetype { return &Scalars{} },
	KindTransform3D:   func() Archetype { return &Transform3D{} },
	KindMesh3D:        func() Archetype { return &Mesh3D{} },
	KindBox3D:         func() Archetype { return &Box3D{} },
	KindSphere3D:      func() Archetype { return &Sphere3D{} },
	KindCylinder3D:    func() Archetype { return &Cylinder3D{} },
	KindLinkHierarchy: func() Archetype { return &LinkHierarchy{} },
}
