// Package urdf loads robot descriptions in the Unified Robot Description Format and logs
// their geometry and per-frame link transforms to a recording stream.
package urdf

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/simrecord/spatialmath"
	"go.viam.com/simrecord/utils"
)

// Joint connects a parent link to a child link.
type Joint struct {
	Name   string
	Type   string
	Parent string
	Child  string
	Origin spatialmath.Pose
	Axis   r3.Vector
	// Limits is nil when the description declares none.
	Limits *Limits
}

// Limits bounds the motion of a joint.
type Limits struct {
	Lower    float64
	Upper    float64
	Effort   float64
	Velocity float64
}

// Actuated reports whether the joint has a degree of freedom.
func (j *Joint) Actuated() bool {
	switch j.Type {
	case RevoluteJoint, ContinuousJoint, PrismaticJoint:
		return true
	default:
		return false
	}
}

// Geometry is exactly one of the supported visual shapes.
type Geometry struct {
	Mesh     *Mesh
	Box      *r3.Vector // full size
	Sphere   *float64   // radius
	Cylinder *Cylinder
}

// Mesh references a mesh file as written in the description.
type Mesh struct {
	Filename string
	Scale    r3.Vector
}

// Cylinder is a cylinder primitive.
type Cylinder struct {
	Radius float64
	Length float64
}

// Visual is one visual element of a link.
type Visual struct {
	Name     string
	Origin   spatialmath.Pose
	Geometry Geometry
}

// Link is a rigid body in the description tree.
type Link struct {
	Name string
	// Index is the link's position in Description.Links.
	Index int
	// Parent is empty for the root link.
	Parent string
	// Joint is the joint attaching this link to its parent, nil for the root.
	Joint    *Joint
	Children []string
	Visuals  []Visual
	// Path is the entity path of the link in a recording.
	Path string
}

// Description is a parsed robot description. It is immutable once loaded except for the base
// offset recorded by RegisterStatics.
type Description struct {
	name    string
	file    string
	meshDir string
	prefix  string

	links  []*Link
	byName map[string]*Link
	joints []*Joint

	mu   sync.RWMutex
	base spatialmath.Pose
}

// FromFile reads and parses the description at path. Relative mesh references resolve against
// meshDir, or the file's directory when meshDir is empty. Every entity path logged for the
// description is rooted at prefix.
func FromFile(path, meshDir, prefix string) (*Description, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read URDF file")
	}
	if meshDir == "" {
		meshDir = filepath.Dir(path)
	}
	return Parse(data, path, meshDir, prefix)
}

// Parse parses description XML. file is used for error messages only.
func Parse(data []byte, file, meshDir, prefix string) (*Description, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrNoModelInformation
	}
	var robot robotXML
	if err := xml.Unmarshal(data, &robot); err != nil {
		return nil, &ParseError{File: file, Reason: "malformed XML", Err: err}
	}
	if len(robot.Links) == 0 {
		return nil, &ParseError{File: file, Reason: "no links declared"}
	}

	d := &Description{
		name:    robot.Name,
		file:    file,
		meshDir: lo.Ternary(meshDir == "", ".", meshDir),
		prefix:  strings.TrimSuffix(prefix, "/"),
		byName:  make(map[string]*Link, len(robot.Links)),
		base:    spatialmath.NewZeroPose(),
	}

	declared := make([]*Link, 0, len(robot.Links))
	for _, lx := range robot.Links {
		if lx.Name == "" {
			return nil, &ParseError{File: file, Reason: "link without a name"}
		}
		if _, dup := d.byName[lx.Name]; dup {
			return nil, &ParseError{File: file, Reason: "duplicate link " + lx.Name}
		}
		link := &Link{Name: lx.Name}
		for _, vx := range lx.Visuals {
			visual, err := parseVisual(vx)
			if err != nil {
				return nil, &ParseError{File: file, Reason: "link " + lx.Name, Err: err}
			}
			link.Visuals = append(link.Visuals, visual)
		}
		d.byName[lx.Name] = link
		declared = append(declared, link)
	}

	jointNames := make(map[string]bool, len(robot.Joints))
	for _, jx := range robot.Joints {
		if jointNames[jx.Name] {
			return nil, &ParseError{File: file, Reason: "duplicate joint " + jx.Name}
		}
		jointNames[jx.Name] = true
		if !lo.Contains([]string{RevoluteJoint, ContinuousJoint, PrismaticJoint, FixedJoint, FloatingJoint, PlanarJoint}, jx.Type) {
			return nil, &ParseError{File: file, Reason: "unsupported joint type " + jx.Type + " for joint " + jx.Name}
		}
		parent, ok := d.byName[jx.Parent.Link]
		if !ok {
			return nil, &ParseError{File: file, Reason: "joint " + jx.Name + " references unknown parent " + jx.Parent.Link}
		}
		child, ok := d.byName[jx.Child.Link]
		if !ok {
			return nil, &ParseError{File: file, Reason: "joint " + jx.Name + " references unknown child " + jx.Child.Link}
		}
		if child.Joint != nil {
			return nil, &ParseError{File: file, Reason: "link " + child.Name + " has more than one parent"}
		}
		joint := &Joint{
			Name:   jx.Name,
			Type:   jx.Type,
			Parent: parent.Name,
			Child:  child.Name,
			Origin: jx.Origin.parse(),
			Axis:   jx.Axis.parse(),
		}
		if jx.Limit != nil {
			joint.Limits = &Limits{Lower: jx.Limit.Lower, Upper: jx.Limit.Upper, Effort: jx.Limit.Effort, Velocity: jx.Limit.Velocity}
		}
		child.Joint = joint
		child.Parent = parent.Name
		parent.Children = append(parent.Children, child.Name)
		d.joints = append(d.joints, joint)
	}

	roots := lo.Filter(declared, func(l *Link, _ int) bool { return l.Joint == nil })
	if len(roots) != 1 {
		return nil, &ParseError{
			File:   file,
			Reason: "expected exactly one root link, found " + strings.Join(lo.Map(roots, func(l *Link, _ int) string { return l.Name }), ", "),
		}
	}

	// depth-first pre-order, children in joint declaration order
	var visit func(l *Link, path string)
	visit = func(l *Link, path string) {
		l.Index = len(d.links)
		l.Path = path + "/" + l.Name
		d.links = append(d.links, l)
		for _, c := range l.Children {
			visit(d.byName[c], l.Path)
		}
	}
	visit(roots[0], d.prefix)
	if len(d.links) != len(declared) {
		return nil, &ParseError{File: file, Reason: "joint graph contains a cycle"}
	}
	return d, nil
}

func parseVisual(vx visualXML) (Visual, error) {
	v := Visual{Name: vx.Name, Origin: vx.Origin.parse()}
	g := vx.Geometry
	switch {
	case g.Mesh != nil:
		if g.Mesh.Filename == "" {
			return v, errors.New("mesh without filename")
		}
		s := utils.FloatTriple(g.Mesh.Scale, 1)
		v.Geometry.Mesh = &Mesh{Filename: g.Mesh.Filename, Scale: r3.Vector{X: s[0], Y: s[1], Z: s[2]}}
	case g.Box != nil:
		s := utils.FloatTriple(g.Box.Size, 0)
		v.Geometry.Box = &r3.Vector{X: s[0], Y: s[1], Z: s[2]}
	case g.Sphere != nil:
		r := g.Sphere.Radius
		v.Geometry.Sphere = &r
	case g.Cylinder != nil:
		v.Geometry.Cylinder = &Cylinder{Radius: g.Cylinder.Radius, Length: g.Cylinder.Length}
	default:
		return v, errors.New("visual has no supported geometry")
	}
	return v, nil
}

// Name returns the robot name declared in the description.
func (d *Description) Name() string {
	return d.name
}

// File returns the path the description was loaded from.
func (d *Description) File() string {
	return d.file
}

// MeshDir returns the directory relative mesh references resolve against.
func (d *Description) MeshDir() string {
	return d.meshDir
}

// Prefix returns the entity path prefix.
func (d *Description) Prefix() string {
	return d.prefix
}

// Links returns the links in depth-first pre-order from the root.
func (d *Description) Links() []*Link {
	out := make([]*Link, len(d.links))
	copy(out, d.links)
	return out
}

// LinkNames returns the ordered link names.
func (d *Description) LinkNames() []string {
	return lo.Map(d.links, func(l *Link, _ int) string { return l.Name })
}

// OrderedLinks returns the link names root first. The i-th non-root entry is engine link i-1.
func (d *Description) OrderedLinks() ([]string, error) {
	if len(d.links) == 0 {
		return nil, ErrNoModelInformation
	}
	return d.LinkNames(), nil
}

// Parent returns the parent link name, empty for the root.
func (d *Description) Parent(name string) (string, bool) {
	l, ok := d.byName[name]
	if !ok {
		return "", false
	}
	return l.Parent, true
}

// Link looks up a link by name.
func (d *Description) Link(name string) (*Link, bool) {
	l, ok := d.byName[name]
	return l, ok
}

// Root returns the root link.
func (d *Description) Root() *Link {
	return d.links[0]
}

// Joints returns every joint in declaration order.
func (d *Description) Joints() []*Joint {
	out := make([]*Joint, len(d.joints))
	copy(out, d.joints)
	return out
}

// ActuatedJoints returns the joints with a degree of freedom, in declaration order.
func (d *Description) ActuatedJoints() []*Joint {
	return lo.Filter(d.joints, func(j *Joint, _ int) bool { return j.Actuated() })
}

// LinkPath returns the entity path of the named link.
func (d *Description) LinkPath(name string) (string, bool) {
	l, ok := d.byName[name]
	if !ok {
		return "", false
	}
	return l.Path, true
}

// Base returns the base offset last registered with RegisterStatics.
func (d *Description) Base() spatialmath.Pose {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.base
}
