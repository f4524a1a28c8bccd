package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"go.viam.com/test"

	"go.viam.com/simrecord/config"
	"go.viam.com/simrecord/logging"
	"go.viam.com/simrecord/testutils"
)

func TestRunSessionAndReplay(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	dir := t.TempDir()
	urdfPath := testutils.WriteThreeLink(t, dir, "robots/three_link.urdf")
	dbDir := t.TempDir()
	redis := miniredis.RunT(t)

	doc := fmt.Sprintf(`{
		"session": "cmd_test",
		"sinks": [
			{"type": "memory"},
			{"type": "badger", "attributes": {"path": %q}},
			{"type": "websocket", "attributes": {"addr": "localhost:0"}},
			{"type": "redis", "attributes": {"addr": %q}}
		],
		"robots": [{"name": "arm", "description": %q, "base_fixed": true}],
		"simulation": {"steps": 3, "time_step": "5ms"}
	}`, dbDir, redis.Addr(), urdfPath)
	cfg, err := config.FromReader(ctx, "inline", strings.NewReader(doc), logger)
	test.That(t, err, test.ShouldBeNil)

	var out bytes.Buffer
	test.That(t, runSession(ctx, cfg, logger, &out), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "arm\t3 frames")
	test.That(t, len(redis.Keys()), test.ShouldEqual, 1)

	var list bytes.Buffer
	app := newApp()
	app.Writer = &list
	test.That(t, app.Run([]string{"simrecord", "replay", "--db", dbDir}), test.ShouldBeNil)
	ids := strings.Fields(list.String())
	test.That(t, len(ids), test.ShouldEqual, 1)

	var summary bytes.Buffer
	app = newApp()
	app.Writer = &summary
	test.That(t, app.Run([]string{"simrecord", "replay", "--db", dbDir, "--recording", ids[0]}), test.ShouldBeNil)
	test.That(t, summary.String(), test.ShouldContainSubstring, "world/robots/arm/joint/0\t3 entries\tlast frame 2")
	test.That(t, summary.String(), test.ShouldContainSubstring, "world/robots/arm\t1 entries\tstatic")
}

func TestRunSessionLoadFailure(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	cfg, err := config.FromReader(ctx, "inline", strings.NewReader(`{
		"session": "missing",
		"robots": [{"name": "ghost", "description": "nowhere/ghost.urdf"}]
	}`), logger)
	test.That(t, err, test.ShouldBeNil)
	err = runSession(ctx, cfg, logger, &bytes.Buffer{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not found")
}

func TestRobotsCommand(t *testing.T) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	test.That(t, app.Run([]string{"simrecord", "robots"}), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "franka_panda\tpanda.urdf")
	test.That(t, out.String(), test.ShouldContainSubstring, "kuka_iiwa\tiiwa14.urdf")
}
