package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/simrecord/logging"
	"go.viam.com/simrecord/recording/badgerstore"
	"go.viam.com/simrecord/recording/redisstream"
	"go.viam.com/simrecord/recording/wsstream"
	"go.viam.com/simrecord/robots"
	"go.viam.com/simrecord/spatialmath"
	"go.viam.com/simrecord/testutils"
	"go.viam.com/simrecord/utils"
)

func TestRead(t *testing.T) {
	logger := logging.NewTestLogger(t)
	path := utils.ResolveFile("config/testdata/robots.json")
	dir := filepath.Dir(path)
	cfg, err := Read(context.Background(), path, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, cfg.Session, test.ShouldEqual, "simrecord_demo")
	test.That(t, cfg.LogLevel, test.ShouldEqual, logging.DEBUG)
	test.That(t, cfg.LogFile.AppenderConfig().MaxSizeMB, test.ShouldEqual, 10)
	test.That(t, cfg.SearchPaths, test.ShouldResemble, []string{filepath.Join(dir, "data/robots")})

	test.That(t, len(cfg.Sinks), test.ShouldEqual, 4)
	test.That(t, cfg.Sinks[0].ConvertedAttributes, test.ShouldBeNil)
	test.That(t, cfg.Sinks[1].ConvertedAttributes, test.ShouldResemble, &badgerstore.Config{Path: filepath.Join(dir, "recordings")})
	test.That(t, cfg.Sinks[2].ConvertedAttributes, test.ShouldResemble, &wsstream.Config{Addr: "localhost:9877", SendBuffer: 64})
	test.That(t, cfg.Sinks[3].ConvertedAttributes, test.ShouldResemble, &redisstream.Config{Addr: "localhost:6379", MaxLen: 10000})

	test.That(t, cfg.Robots[0].RobotType().Description, test.ShouldEqual, "panda.urdf")
	test.That(t, cfg.Robots[0].Base.Pose(), test.ShouldNotBeNil)
	arm := cfg.Robots[1]
	test.That(t, arm.RobotType(), test.ShouldResemble, robots.Custom(filepath.Join(dir, "data/robots/three_link.urdf")))
	want := spatialmath.NewPose(r3.Vector{X: 1}, &spatialmath.EulerAngles{Yaw: 1.5707963267948966})
	test.That(t, spatialmath.PoseAlmostEqual(arm.Base.Pose(), want), test.ShouldBeTrue)

	test.That(t, cfg.Simulation.TimeStepDuration(), test.ShouldEqual, 10*time.Millisecond)
	test.That(t, cfg.Simulation.MotionCycleDuration(), test.ShouldEqual, 2*time.Second)
	test.That(t, cfg.Simulation.Amplitude, test.ShouldEqual, 0.5)
	test.That(t, cfg.Simulation.Steps, test.ShouldEqual, int64(100))
}

func TestReadKeepsAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	urdfPath := filepath.Join(t.TempDir(), "arm.urdf")
	path := testutils.WriteFile(t, dir, "simrecord.json", fmt.Sprintf(`{
		"session": "s",
		"search_paths": [%q, "robots"],
		"robots": [{"name": "arm", "description": %q, "mesh_path": "meshes"}]
	}`, "/opt/robots", urdfPath))
	cfg, err := Read(context.Background(), path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.SearchPaths, test.ShouldResemble, []string{"/opt/robots", filepath.Join(dir, "robots")})
	test.That(t, cfg.Robots[0].Description, test.ShouldEqual, urdfPath)
	test.That(t, cfg.Robots[0].MeshPath, test.ShouldEqual, filepath.Join(dir, "meshes"))

	// inline documents have no directory to resolve against
	cfg, err = FromReader(context.Background(), "inline", strings.NewReader(`{"session": "s", "search_paths": ["robots"]}`), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.SearchPaths, test.ShouldResemble, []string{"robots"})
}

func TestDefaults(t *testing.T) {
	cfg, err := FromReader(context.Background(), "inline", strings.NewReader(`{"session": "s"}`), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.LogLevel, test.ShouldEqual, logging.INFO)
	test.That(t, cfg.Simulation.TimeStepDuration(), test.ShouldEqual, time.Second/240)
	test.That(t, cfg.Simulation.MotionCycleDuration(), test.ShouldEqual, 4*time.Second)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, "inline")
}

func TestValidationErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, tc := range []struct {
		name string
		doc  string
		msg  string
	}{
		{"no session", `{}`, "session"},
		{"unknown field", `{"session": "s", "sesion": "t"}`, "unknown field"},
		{"sink type", `{"session": "s", "sinks": [{"type": "kafka"}]}`, "kafka"},
		{"sink missing type", `{"session": "s", "sinks": [{}]}`, "type"},
		{"sink attributes", `{"session": "s", "sinks": [{"type": "redis", "attributes": {"adress": "x"}}]}`, "sinks.0"},
		{"badger path", `{"session": "s", "sinks": [{"type": "badger"}]}`, "path"},
		{"robot name", `{"session": "s", "robots": [{"type": "ur5"}]}`, "robots.0"},
		{"robot name chars", `{"session": "s", "robots": [{"name": "a/b", "type": "ur5"}]}`, "letters, numbers"},
		{"robot type", `{"session": "s", "robots": [{"name": "x", "type": "r2d2"}]}`, "r2d2"},
		{"duplicate robot", `{"session": "s", "robots": [{"name": "x", "type": "ur5"}, {"name": "x", "type": "ur5"}]}`, "duplicate"},
		{"time step", `{"session": "s", "simulation": {"time_step": "fast"}}`, "time_step"},
		{"log file", `{"session": "s", "log_file": {}}`, "log_file"},
		{"level", `{"session": "s", "log_level": "loud"}`, "loud"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromReader(context.Background(), tc.name, strings.NewReader(tc.doc), logger)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
		})
	}
}
