package recorder

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/simrecord/spatialmath"
	"go.viam.com/simrecord/urdf"
	"go.viam.com/simrecord/utils"
)

// PrefixRoot is the entity path under which every robot instance is recorded.
const PrefixRoot = "world/robots/"

// Builder configures a robot recorder. Setters return the builder for chaining and never fail;
// all validation happens in Load, which may only be called once.
type Builder struct {
	host *Host

	name            string
	descriptionPath string
	meshPath        string
	base            spatialmath.Pose
	baseFixed       bool
	scaling         float64
	linkVelocity    bool

	consumed atomic.Bool
}

// Name sets the robot instance name. Entity paths are rooted at world/robots/<name>.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// DescriptionPath overrides the resolved description file.
func (b *Builder) DescriptionPath(path string) *Builder {
	b.descriptionPath = path
	return b
}

// MeshPath overrides the directory meshes are resolved against.
func (b *Builder) MeshPath(path string) *Builder {
	b.meshPath = path
	return b
}

// Base sets where the robot is placed in the world.
func (b *Builder) Base(pose spatialmath.Pose) *Builder {
	b.base = pose
	return b
}

// BaseFixed records whether the physics host pins the robot's base. It does not change what is logged.
func (b *Builder) BaseFixed(fixed bool) *Builder {
	b.baseFixed = fixed
	return b
}

// Scaling sets the uniform scale applied to the robot's visuals.
func (b *Builder) Scaling(scale float64) *Builder {
	b.scaling = scale
	return b
}

// LinkVelocityChannels additionally logs each link's world velocity at
// <prefix>/link_vel/<link>, next to the shared cartesian_vel channel.
func (b *Builder) LinkVelocityChannels(enabled bool) *Builder {
	b.linkVelocity = enabled
	return b
}

// Load parses the description, registers its static geometry and returns a robot recorder that
// is not yet attached.
func (b *Builder) Load(ctx context.Context) (*Robot, error) {
	if !b.consumed.CompareAndSwap(false, true) {
		return nil, ErrBuilderConsumed
	}
	if b.name == "" {
		return nil, ErrMissingName
	}
	if err := utils.ValidateName(b.name); err != nil {
		return nil, err
	}
	if !utils.FileExists(b.descriptionPath) {
		return nil, errors.Wrapf(ErrDescriptionNotFound, "%q (search paths %v)", b.descriptionPath, b.host.SearchPaths())
	}

	prefix := PrefixRoot + b.name
	desc, err := urdf.FromFile(b.descriptionPath, b.meshPath, prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load robot %q", b.name)
	}

	stream := b.host.Stream().Clone()
	guard := utils.NewGuard(func() {
		if err := stream.Close(); err != nil {
			b.host.logger.Warnw("failed to release recording handle", "robot", b.name, "error", err)
		}
	})
	defer guard.OnFail()

	base := b.base
	if base == nil {
		base = spatialmath.NewZeroPose()
	}
	if err := desc.RegisterStatics(ctx, stream, base, b.scaling); err != nil {
		return nil, errors.Wrapf(err, "failed to register robot %q", b.name)
	}

	r := &Robot{
		name:         b.name,
		prefix:       prefix,
		desc:         desc,
		stream:       stream,
		logger:       b.host.logger.Sublogger(b.name),
		baseFixed:    b.baseFixed,
		linkVelocity: b.linkVelocity,
	}
	if err := b.host.track(r); err != nil {
		return nil, err
	}
	guard.Success()
	r.logger.CDebugw(ctx, "robot loaded", "description", b.descriptionPath, "links", len(desc.Links()), "joints", len(desc.ActuatedJoints()))
	return r, nil
}
