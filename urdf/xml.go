package urdf

import (
	"encoding/xml"

	"github.com/golang/geo/r3"

	"go.viam.com/simrecord/spatialmath"
	"go.viam.com/simrecord/utils"
)

// Joint types understood by the loader.
const (
	RevoluteJoint   = "revolute"
	ContinuousJoint = "continuous"
	PrismaticJoint  = "prismatic"
	FixedJoint      = "fixed"
	FloatingJoint   = "floating"
	PlanarJoint     = "planar"
)

// robotXML represents the supported subset of a URDF file.
type robotXML struct {
	XMLName xml.Name   `xml:"robot"`
	Name    string     `xml:"name,attr"`
	Links   []linkXML  `xml:"link"`
	Joints  []jointXML `xml:"joint"`
}

type linkXML struct {
	XMLName xml.Name    `xml:"link"`
	Name    string      `xml:"name,attr"`
	Visuals []visualXML `xml:"visual"`
}

type visualXML struct {
	XMLName  xml.Name    `xml:"visual"`
	Name     string      `xml:"name,attr"`
	Origin   *originXML  `xml:"origin"`
	Geometry geometryXML `xml:"geometry"`
}

type geometryXML struct {
	Box      *boxXML      `xml:"box,omitempty"`
	Sphere   *sphereXML   `xml:"sphere,omitempty"`
	Cylinder *cylinderXML `xml:"cylinder,omitempty"`
	Mesh     *meshXML     `xml:"mesh,omitempty"`
}

type boxXML struct {
	Size string `xml:"size,attr"` // "x y z" format, in meters
}

type sphereXML struct {
	Radius float64 `xml:"radius,attr"` // in meters
}

type cylinderXML struct {
	Radius float64 `xml:"radius,attr"`
	Length float64 `xml:"length,attr"`
}

type meshXML struct {
	Filename string `xml:"filename,attr"`
	Scale    string `xml:"scale,attr"` // optional "x y z" scale
}

type jointXML struct {
	XMLName xml.Name   `xml:"joint"`
	Name    string     `xml:"name,attr"`
	Type    string     `xml:"type,attr"`
	Parent  frameXML   `xml:"parent"`
	Child   frameXML   `xml:"child"`
	Origin  *originXML `xml:"origin,omitempty"`
	Axis    *axisXML   `xml:"axis,omitempty"`
	Limit   *limitXML  `xml:"limit,omitempty"`
}

type frameXML struct {
	Link string `xml:"link,attr"`
}

type limitXML struct {
	Lower    float64 `xml:"lower,attr"` // translation limits are in meters, revolute limits are in radians
	Upper    float64 `xml:"upper,attr"`
	Effort   float64 `xml:"effort,attr"`
	Velocity float64 `xml:"velocity,attr"`
}

type axisXML struct {
	XYZ string `xml:"xyz,attr"`
}

type originXML struct {
	RPY string `xml:"rpy,attr"` // Fixed frame angle "r p y" format, in radians
	XYZ string `xml:"xyz,attr"` // "x y z" format, in meters
}

// parse converts an origin element to a pose. A missing element is the identity.
func (o *originXML) parse() spatialmath.Pose {
	if o == nil {
		return spatialmath.NewZeroPose()
	}
	xyz := utils.FloatTriple(o.XYZ, 0)
	rpy := utils.FloatTriple(o.RPY, 0)
	return spatialmath.NewPose(
		r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]},
		&spatialmath.EulerAngles{Roll: rpy[0], Pitch: rpy[1], Yaw: rpy[2]},
	)
}

// parse returns the joint axis, defaulting to x as URDF does.
func (a *axisXML) parse() r3.Vector {
	if a == nil {
		return r3.Vector{X: 1}
	}
	xyz := utils.FloatTriple(a.XYZ, 0)
	return r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}
}
