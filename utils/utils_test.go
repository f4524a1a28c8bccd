package utils

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/atomic"
	"go.viam.com/test"
	gotestutils "go.viam.com/utils/testutils"

	"go.viam.com/simrecord/logging"
)

func TestSpaceDelimitedStringToFloatSlice(t *testing.T) {
	test.That(t, SpaceDelimitedStringToFloatSlice("0.1  -2 3e-1"), test.ShouldResemble, []float64{0.1, -2, 0.3})
	test.That(t, SpaceDelimitedStringToFloatSlice(""), test.ShouldBeNil)

	bad := SpaceDelimitedStringToFloatSlice("1 x")
	test.That(t, bad[0], test.ShouldEqual, 1.0)
	test.That(t, math.IsNaN(bad[1]), test.ShouldBeTrue)

	test.That(t, FloatTriple("2", 1), test.ShouldResemble, [3]float64{2, 1, 1})
	test.That(t, FloatTriple("1 2 3 4", 0), test.ShouldResemble, [3]float64{1, 2, 3})
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "robot.urdf")
	test.That(t, FileExists(path), test.ShouldBeFalse)
	test.That(t, os.WriteFile(path, []byte("<robot/>"), 0o600), test.ShouldBeNil)
	test.That(t, FileExists(path), test.ShouldBeTrue)
	test.That(t, FileExists(dir), test.ShouldBeTrue)

	_, err := SafeJoinDir(dir, "../escape")
	test.That(t, err, test.ShouldNotBeNil)
	joined, err := SafeJoinDir(dir, "meshes/link0.stl")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, joined, test.ShouldEqual, filepath.Join(dir, "meshes", "link0.stl"))

	joined, err = SafeJoinDir(".", "meshes/link0.stl")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, joined, test.ShouldEqual, filepath.Join("meshes", "link0.stl"))
	_, err = SafeJoinDir(".", "../link0.stl")
	test.That(t, err, test.ShouldNotBeNil)
	joined, err = SafeJoinDir(dir, "..link0.stl")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, joined, test.ShouldEqual, filepath.Join(dir, "..link0.stl"))
}

func TestMath(t *testing.T) {
	test.That(t, Clamp(5, -1, 1), test.ShouldEqual, 1.0)
	test.That(t, Clamp(-5, -1, 1), test.ShouldEqual, -1.0)
	test.That(t, Clamp(0.5, -1, 1), test.ShouldEqual, 0.5)
}

func TestStoppableWorkers(t *testing.T) {
	ran := atomic.NewInt32(0)
	workers := NewStoppableWorkers(func(ctx context.Context) {
		ran.Inc()
		<-ctx.Done()
	})
	workers.AddWorkers(func(ctx context.Context) {
		ran.Inc()
		<-ctx.Done()
	})
	workers.Stop()
	test.That(t, ran.Load(), test.ShouldEqual, int32(2))
	test.That(t, workers.Context().Err(), test.ShouldNotBeNil)

	// no-op after stop
	workers.AddWorkers(func(ctx context.Context) { ran.Inc() })
	test.That(t, ran.Load(), test.ShouldEqual, int32(2))
}

func TestAssertType(t *testing.T) {
	one := 1
	_, err := AssertType[string](one)
	test.That(t, err.Error(), test.ShouldEqual, "expected string but got int")

	var cfg any = &struct{ Path string }{"x"}
	_, err = AssertType[*int](cfg)
	test.That(t, err.Error(), test.ShouldEqual, "expected *int but got *struct { Path string }")

	asserted, err := AssertType[int](one)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, asserted, test.ShouldEqual, 1)
}

func TestGuard(t *testing.T) {
	cleaned := 0
	build := func(fail bool) {
		guard := NewGuard(func() { cleaned++ })
		defer guard.OnFail()
		if fail {
			return
		}
		guard.Success()
	}
	build(false)
	test.That(t, cleaned, test.ShouldEqual, 0)
	build(true)
	test.That(t, cleaned, test.ShouldEqual, 1)
}

func TestValidateName(t *testing.T) {
	test.That(t, ValidateName("panda_1"), test.ShouldBeNil)
	test.That(t, ValidateName("ur5-left"), test.ShouldBeNil)
	test.That(t, ValidateName(""), test.ShouldNotBeNil)
	test.That(t, ValidateName("arm/1"), test.ShouldNotBeNil)
	test.That(t, ValidateName("_arm"), test.ShouldNotBeNil)
	long := "a"
	for len(long) <= 60 {
		long += "a"
	}
	test.That(t, ValidateName(long).Error(), test.ShouldContainSubstring, "60 characters")
}

func TestSlowLogger(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	done := SlowLogger(context.Background(), logger, "still closing", "session", "s")
	gotestutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, logs.FilterMessage("still closing").Len(), test.ShouldEqual, 1)
	})
	done()
	entry := logs.FilterMessage("still closing").All()[0]
	test.That(t, entry.ContextMap()["session"], test.ShouldEqual, "s")
	test.That(t, entry.ContextMap()["time_elapsed"], test.ShouldEqual, "2s")
}
