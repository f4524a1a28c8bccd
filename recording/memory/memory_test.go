package memory

import (
	"context"
	"testing"

	"go.viam.com/test"

	"go.viam.com/simrecord/recording"
)

func TestStoreQueries(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	rec := recording.New("memory", store)

	test.That(t, rec.LogStatic(ctx, "world/robots/a", &recording.Sphere3D{Radius: 1}), test.ShouldBeNil)
	for frame := int64(0); frame < 3; frame++ {
		rec.SetTimeSequence("realtime", frame)
		test.That(t, rec.Log(ctx, "world/robots/a/joint/0", recording.NewScalars(float64(frame))), test.ShouldBeNil)
		test.That(t, rec.Log(ctx, "world/robots/b/joint/0", recording.NewScalars(-float64(frame))), test.ShouldBeNil)
	}

	test.That(t, store.Len(), test.ShouldEqual, 7)
	test.That(t, store.Frames("realtime"), test.ShouldResemble, []int64{0, 1, 2})
	test.That(t, len(store.Path("world/robots/a/joint/0")), test.ShouldEqual, 3)
	test.That(t, len(store.Prefix("world/robots/a")), test.ShouldEqual, 4)
	test.That(t, len(store.AtTime("realtime", 1)), test.ShouldEqual, 2)
	test.That(t, store.Paths(), test.ShouldResemble, []string{
		"world/robots/a", "world/robots/a/joint/0", "world/robots/b/joint/0",
	})

	latest, ok := store.Latest("world/robots/b/joint/0")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, latest.Data.(*recording.Scalars).Values, test.ShouldResemble, []float64{-2})
	_, ok = store.Latest("nowhere")
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, rec.Close(), test.ShouldBeNil)
	test.That(t, store.Write(ctx, recording.Entry{}), test.ShouldBeError, recording.ErrStreamClosed)
	test.That(t, store.Len(), test.ShouldEqual, 7)
}
