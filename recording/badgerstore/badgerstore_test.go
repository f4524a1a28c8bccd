package badgerstore

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/simrecord/logging"
	"go.viam.com/simrecord/recording"
)

func TestWriteAndReplay(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	store, err := Open(Config{InMemory: true}, logger)
	test.That(t, err, test.ShouldBeNil)

	first := recording.New("replay", store)
	second := recording.New("replay", store)
	for frame := int64(0); frame < 12; frame++ {
		first.SetTimeSequence("realtime", frame)
		test.That(t, first.Log(ctx, "world/robots/a/joint/0", recording.NewScalars(float64(frame))), test.ShouldBeNil)
	}
	test.That(t, second.LogStatic(ctx, "world/robots/b", &recording.Sphere3D{Radius: 1}), test.ShouldBeNil)
	test.That(t, first.Flush(ctx), test.ShouldBeNil)

	ids, err := store.Recordings(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(ids), test.ShouldEqual, 2)
	test.That(t, ids, test.ShouldContain, first.RecordingID())
	test.That(t, ids, test.ShouldContain, second.RecordingID())

	var frames []int64
	var lastSeq uint64
	err = store.Replay(ctx, first.RecordingID(), func(e recording.Entry) error {
		test.That(t, e.Seq, test.ShouldBeGreaterThan, lastSeq)
		lastSeq = e.Seq
		frame, _ := e.Time("realtime")
		frames = append(frames, frame)
		test.That(t, e.Data.(*recording.Scalars).Values[0], test.ShouldEqual, float64(frame))
		return nil
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frames, test.ShouldResemble, []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11})

	stop := errors.New("stop")
	count := 0
	err = store.Replay(ctx, first.RecordingID(), func(recording.Entry) error {
		count++
		return stop
	})
	test.That(t, err, test.ShouldEqual, stop)
	test.That(t, count, test.ShouldEqual, 1)

	test.That(t, second.Close(), test.ShouldBeNil)
	test.That(t, first.Close(), test.ShouldBeNil)
}

func TestPersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	dir := t.TempDir()

	store, err := Open(Config{Path: dir}, logger)
	test.That(t, err, test.ShouldBeNil)
	rec := recording.New("persist", store)
	test.That(t, rec.Log(ctx, "a", recording.NewScalars(1)), test.ShouldBeNil)
	test.That(t, rec.Close(), test.ShouldBeNil)

	reopened, err := Open(Config{Path: dir}, logger)
	test.That(t, err, test.ShouldBeNil)
	defer reopened.Close()
	ids, err := reopened.Recordings(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ids, test.ShouldResemble, []string{rec.RecordingID()})
}

func TestConfigValidate(t *testing.T) {
	test.That(t, (&Config{}).Validate("sinks.0"), test.ShouldNotBeNil)
	test.That(t, (&Config{InMemory: true}).Validate("sinks.0"), test.ShouldBeNil)
	test.That(t, (&Config{Path: "/tmp/x"}).Validate("sinks.0"), test.ShouldBeNil)
}
