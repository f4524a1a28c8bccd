package redisstream

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.viam.com/test"

	"go.viam.com/simrecord/recording"
)

func TestPublishAndRead(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	sink, err := Open(ctx, Config{Addr: mr.Addr()})
	test.That(t, err, test.ShouldBeNil)

	rec := recording.New("redis", sink)
	for frame := int64(0); frame < 3; frame++ {
		rec.SetTimeSequence("realtime", frame)
		test.That(t, rec.Log(ctx, "world/robots/a/torque/0", recording.NewScalars(float64(frame)/2)), test.ShouldBeNil)
	}

	key := sink.StreamKey(rec.RecordingID())
	test.That(t, key, test.ShouldEqual, "simrecord:"+rec.RecordingID())
	test.That(t, mr.Exists(key), test.ShouldBeTrue)

	entries, err := sink.Read(ctx, rec.RecordingID())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(entries), test.ShouldEqual, 3)
	for i, e := range entries {
		test.That(t, e.Path, test.ShouldEqual, "world/robots/a/torque/0")
		test.That(t, e.Timelines["realtime"], test.ShouldEqual, int64(i))
		test.That(t, e.Data, test.ShouldResemble, recording.NewScalars(float64(i)/2))
	}

	test.That(t, rec.Close(), test.ShouldBeNil)
}

func TestSharedClientNotClosed(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	sink := NewSink(client, Config{Addr: mr.Addr(), StreamKey: "robots"})
	rec := recording.New("shared", sink)
	test.That(t, rec.LogStatic(ctx, "world/robots/a", &recording.Sphere3D{Radius: 0.1}), test.ShouldBeNil)
	test.That(t, rec.Close(), test.ShouldBeNil)

	n, err := client.XLen(ctx, "robots").Result()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, int64(1))
}

func TestOpenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err := Open(context.Background(), Config{Addr: addr})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestConfigValidate(t *testing.T) {
	test.That(t, (&Config{}).Validate("sinks.2"), test.ShouldNotBeNil)
	test.That(t, (&Config{Addr: "localhost:6379", MaxLen: -1}).Validate("sinks.2"), test.ShouldNotBeNil)
	test.That(t, (&Config{Addr: "localhost:6379"}).Validate("sinks.2"), test.ShouldBeNil)
}
