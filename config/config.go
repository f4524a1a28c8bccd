// Package config defines the JSON configuration of a simrecord run.
package config

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/simrecord/logging"
	"go.viam.com/simrecord/recording/badgerstore"
	"go.viam.com/simrecord/recording/redisstream"
	"go.viam.com/simrecord/recording/wsstream"
	"go.viam.com/simrecord/robots"
	"go.viam.com/simrecord/spatialmath"
	rutils "go.viam.com/simrecord/utils"
)

// Sink types.
const (
	SinkMemory    = "memory"
	SinkBadger    = "badger"
	SinkWebsocket = "websocket"
	SinkRedis     = "redis"
)

// Config describes one recording session and the robots simulated in it.
type Config struct {
	ConfigFilePath string `json:"-"`

	Session     string        `json:"session"`
	SearchPaths []string      `json:"search_paths"`
	LogLevel    logging.Level `json:"log_level"`
	LogFile     *LogFile      `json:"log_file,omitempty"`
	Sinks       []Sink        `json:"sinks"`
	Robots      []Robot       `json:"robots"`
	Simulation  Simulation    `json:"simulation"`
}

// LogFile configures a rotating log file next to stdout logging.
type LogFile struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty"`
}

// AppenderConfig converts to the logging package's file appender config.
func (lf *LogFile) AppenderConfig() logging.FileAppenderConfig {
	return logging.FileAppenderConfig{Path: lf.Path, MaxSizeMB: lf.MaxSizeMB, MaxBackups: lf.MaxBackups, MaxAgeDays: lf.MaxAgeDays}
}

// Sink selects a recording destination. Attributes are decoded into the sink type's own config.
type Sink struct {
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes,omitempty"`

	ConvertedAttributes any `json:"-"`
}

// Robot is one robot instance to load and record.
type Robot struct {
	Name string `json:"name"`
	// Type is a registered robot type. Description overrides it with a file path.
	Type                 string  `json:"type,omitempty"`
	Description          string  `json:"description,omitempty"`
	MeshPath             string  `json:"mesh_path,omitempty"`
	Base                 *Pose   `json:"base,omitempty"`
	BaseFixed            bool    `json:"base_fixed,omitempty"`
	Scaling              float64 `json:"scaling,omitempty"`
	LinkVelocityChannels bool    `json:"link_velocity_channels,omitempty"`
}

// Pose is a translation in meters and URDF style roll, pitch, yaw in radians.
type Pose struct {
	Translation [3]float64 `json:"translation"`
	RPY         [3]float64 `json:"rpy"`
}

// Pose converts to a spatialmath pose.
func (p *Pose) Pose() spatialmath.Pose {
	if p == nil {
		return spatialmath.NewZeroPose()
	}
	return spatialmath.NewPose(
		r3.Vector{X: p.Translation[0], Y: p.Translation[1], Z: p.Translation[2]},
		&spatialmath.EulerAngles{Roll: p.RPY[0], Pitch: p.RPY[1], Yaw: p.RPY[2]},
	)
}

// Simulation configures the kinematic host that drives the robots.
type Simulation struct {
	// TimeStep is a Go duration string; defaults to 1/240 s.
	TimeStep string `json:"time_step,omitempty"`
	// Realtime paces steps at TimeStep instead of running as fast as possible.
	Realtime bool  `json:"realtime,omitempty"`
	Steps    int64 `json:"steps,omitempty"`
	// Motion of every actuated joint.
	Amplitude   float64 `json:"amplitude,omitempty"`
	MotionCycle string  `json:"motion_cycle,omitempty"`
	Kp          float64 `json:"kp,omitempty"`
	Kd          float64 `json:"kd,omitempty"`

	timeStep    time.Duration
	motionCycle time.Duration
}

// TimeStepDuration returns the parsed time step.
func (s *Simulation) TimeStepDuration() time.Duration {
	return s.timeStep
}

// MotionCycleDuration returns the parsed motion period.
func (s *Simulation) MotionCycleDuration() time.Duration {
	return s.motionCycle
}

// Validate ensures all parts of the config are valid and fills in defaults.
func (c *Config) Validate(path string) error {
	if c.Session == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "session")
	}
	for i := range c.Sinks {
		if err := c.Sinks[i].Validate(fieldPath(path, fmt.Sprintf("sinks.%d", i))); err != nil {
			return err
		}
	}
	seen := map[string]bool{}
	for i := range c.Robots {
		robotPath := fieldPath(path, fmt.Sprintf("robots.%d", i))
		if err := c.Robots[i].Validate(robotPath); err != nil {
			return err
		}
		if seen[c.Robots[i].Name] {
			return utils.NewConfigValidationError(robotPath, errors.Errorf("duplicate robot name %q", c.Robots[i].Name))
		}
		seen[c.Robots[i].Name] = true
	}
	if c.LogFile != nil && c.LogFile.Path == "" {
		return utils.NewConfigValidationFieldRequiredError(fieldPath(path, "log_file"), "path")
	}
	return c.Simulation.Validate(fieldPath(path, "simulation"))
}

// Validate decodes the sink attributes into ConvertedAttributes and validates them.
func (s *Sink) Validate(path string) error {
	var converted interface{ Validate(string) error }
	switch s.Type {
	case SinkMemory:
		s.ConvertedAttributes = nil
		return nil
	case SinkBadger:
		converted = &badgerstore.Config{}
	case SinkWebsocket:
		converted = &wsstream.Config{}
	case SinkRedis:
		converted = &redisstream.Config{}
	case "":
		return utils.NewConfigValidationFieldRequiredError(path, "type")
	default:
		return utils.NewConfigValidationError(path, errors.Errorf("unknown sink type %q", s.Type))
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           converted,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(s.Attributes); err != nil {
		return utils.NewConfigValidationError(path, errors.Wrap(err, "invalid attributes"))
	}
	if err := converted.Validate(path); err != nil {
		return err
	}
	s.ConvertedAttributes = converted
	return nil
}

// Validate ensures the robot can be built.
func (r *Robot) Validate(path string) error {
	if r.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if err := rutils.ValidateName(r.Name); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if r.Type == "" && r.Description == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "type")
	}
	if r.Type != "" && r.Description == "" {
		if _, ok := robots.Lookup(r.Type); !ok {
			return utils.NewConfigValidationError(path, errors.Errorf("unknown robot type %q", r.Type))
		}
	}
	if r.Scaling < 0 {
		return utils.NewConfigValidationError(path, errors.New("scaling must be positive"))
	}
	return nil
}

// RobotType returns the type the robot is built from.
func (r *Robot) RobotType() robots.Type {
	if r.Description != "" {
		return robots.Custom(r.Description)
	}
	t, _ := robots.Lookup(r.Type)
	return t
}

// Validate parses durations and applies defaults.
func (s *Simulation) Validate(path string) error {
	var err error
	s.timeStep = time.Second / 240
	if s.TimeStep != "" {
		if s.timeStep, err = time.ParseDuration(s.TimeStep); err != nil || s.timeStep <= 0 {
			return utils.NewConfigValidationError(path, errors.Errorf("invalid time_step %q", s.TimeStep))
		}
	}
	s.motionCycle = 4 * time.Second
	if s.MotionCycle != "" {
		if s.motionCycle, err = time.ParseDuration(s.MotionCycle); err != nil || s.motionCycle <= 0 {
			return utils.NewConfigValidationError(path, errors.Errorf("invalid motion_cycle %q", s.MotionCycle))
		}
	}
	if s.Amplitude == 0 {
		s.Amplitude = 0.5
	}
	if s.Steps < 0 {
		return utils.NewConfigValidationError(path, errors.New("steps must not be negative"))
	}
	return nil
}

func fieldPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}
