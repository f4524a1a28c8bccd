package urdf

import (
	"context"
	"fmt"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/simrecord/recording"
	"go.viam.com/simrecord/spatialmath"
)

type staticLog struct {
	path string
	data recording.Archetype
}

// RegisterStatics logs the time-invariant parts of the robot: the base placement at the prefix,
// the link hierarchy, and every visual of every link, with geometry multiplied by scale. Meshes
// are resolved before anything is logged so a missing mesh leaves the stream untouched.
func (d *Description) RegisterStatics(ctx context.Context, stream *recording.Stream, base spatialmath.Pose, scale float64) error {
	if base == nil {
		base = spatialmath.NewZeroPose()
	}
	if scale <= 0 {
		scale = 1
	}

	logs := []staticLog{{path: d.prefix, data: recording.NewTransform3D(base)}}
	for _, l := range d.links {
		h := &recording.LinkHierarchy{Link: l.Name, Parent: l.Parent, Index: l.Index}
		if l.Joint != nil {
			h.Joint = l.Joint.Name
			h.JointType = l.Joint.Type
		}
		logs = append(logs, staticLog{path: l.Path, data: h})
		for k, v := range l.Visuals {
			vpath := fmt.Sprintf("%s/visual_%d", l.Path, k)
			origin := spatialmath.NewPose(v.Origin.Point().Mul(scale), v.Origin.Orientation())
			logs = append(logs, staticLog{path: vpath, data: recording.NewTransform3D(origin)})
			geom, err := d.visualArchetype(l.Name, v.Geometry, scale)
			if err != nil {
				return err
			}
			logs = append(logs, staticLog{path: vpath, data: geom})
		}
	}

	for _, sl := range logs {
		if err := stream.LogStatic(ctx, sl.path, sl.data); err != nil {
			return errors.Wrapf(err, "failed to log %s", sl.path)
		}
	}
	d.mu.Lock()
	d.base = base
	d.mu.Unlock()
	return nil
}

func (d *Description) visualArchetype(link string, g Geometry, scale float64) (recording.Archetype, error) {
	switch {
	case g.Mesh != nil:
		path, err := d.ResolveMesh(link, g.Mesh.Filename)
		if err != nil {
			return nil, err
		}
		return &recording.Mesh3D{Path: path, Scale: g.Mesh.Scale.Mul(scale)}, nil
	case g.Box != nil:
		return &recording.Box3D{HalfSize: g.Box.Mul(scale / 2)}, nil
	case g.Sphere != nil:
		return &recording.Sphere3D{Radius: *g.Sphere * scale}, nil
	case g.Cylinder != nil:
		return &recording.Cylinder3D{Radius: g.Cylinder.Radius * scale, Length: g.Cylinder.Length * scale}, nil
	default:
		return nil, errors.Errorf("link %q has a visual with no geometry", link)
	}
}

// LogFrame logs one transform per link at the given frame of timeline. The root is placed
// relative to the registered base offset and every other link relative to its parent's world
// pose. poses maps link name to world pose and must cover every link; nothing is logged otherwise.
func (d *Description) LogFrame(
	ctx context.Context,
	stream *recording.Stream,
	frame int64,
	poses map[string]spatialmath.Pose,
	timeline string,
) error {
	var missing []string
	for _, l := range d.links {
		if p, ok := poses[l.Name]; !ok || p == nil {
			missing = append(missing, l.Name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return errors.Wrapf(ErrIncompletePoses, "missing %v", missing)
	}

	base := d.Base()
	stream.SetTimeSequence(timeline, frame)
	var errs error
	for _, l := range d.links {
		var rel spatialmath.Pose
		if l.Parent == "" {
			rel = spatialmath.PoseBetween(base, poses[l.Name])
		} else {
			rel = spatialmath.PoseBetween(poses[l.Parent], poses[l.Name])
		}
		errs = multierr.Combine(errs, stream.Log(ctx, l.Path, recording.NewTransform3D(rel)))
	}
	return errs
}

// WorldPoses returns the world pose of every link given the joint positions in joints, keyed by
// joint name, with the root at base. Missing joints are treated as zero.
func (d *Description) WorldPoses(base spatialmath.Pose, joints map[string]float64) map[string]spatialmath.Pose {
	if base == nil {
		base = spatialmath.NewZeroPose()
	}
	out := make(map[string]spatialmath.Pose, len(d.links))
	for _, l := range d.links {
		if l.Joint == nil {
			out[l.Name] = base
			continue
		}
		local := spatialmath.Compose(l.Joint.Origin, l.Joint.Motion(joints[l.Joint.Name]))
		out[l.Name] = spatialmath.Compose(out[l.Parent], local)
	}
	return out
}

// Motion returns the transform a joint contributes at position q, in the joint frame.
func (j *Joint) Motion(q float64) spatialmath.Pose {
	axis := j.Axis
	if axis.Norm() == 0 {
		axis = r3.Vector{X: 1}
	}
	switch j.Type {
	case RevoluteJoint, ContinuousJoint:
		return spatialmath.NewPose(r3.Vector{}, spatialmath.NewR4AAFromAxis(q, axis))
	case PrismaticJoint:
		return spatialmath.NewPoseFromPoint(axis.Normalize().Mul(q))
	default:
		return spatialmath.NewZeroPose()
	}
}
