package wsstream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/simrecord/logging"
	"go.viam.com/simrecord/recording"
)

func dialViewer(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.Body.Close(), test.ShouldBeNil)
	return conn
}

func TestBroadcast(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	srv := NewServer(Config{Addr: "localhost:0"}, logger)
	httpSrv := httptest.NewServer(srv.Handler())
	defer httpSrv.Close()

	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + defaultPath
	first := dialViewer(t, url)
	defer first.Close()
	second := dialViewer(t, url)
	defer second.Close()

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, srv.NumViewers(), test.ShouldEqual, 2)
	})

	rec := recording.New("live", srv)
	rec.SetTimeSequence("realtime", 7)
	test.That(t, rec.Log(ctx, "world/robots/a/joint/0", recording.NewScalars(0.25)), test.ShouldBeNil)

	for _, conn := range []*websocket.Conn{first, second} {
		mt, raw, err := conn.ReadMessage()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mt, test.ShouldEqual, websocket.TextMessage)
		e, err := recording.UnmarshalEntry(raw)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, e.Path, test.ShouldEqual, "world/robots/a/joint/0")
		test.That(t, e.Timelines["realtime"], test.ShouldEqual, int64(7))
		test.That(t, e.Data, test.ShouldResemble, recording.NewScalars(0.25))
	}

	// A viewer that leaves is forgotten.
	test.That(t, second.Close(), test.ShouldBeNil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, srv.NumViewers(), test.ShouldEqual, 1)
	})

	test.That(t, rec.Close(), test.ShouldBeNil)
	_, _, err := first.ReadMessage()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, srv.Write(ctx, recording.Entry{Path: "x", Data: recording.NewScalars(1)}),
		test.ShouldBeError, recording.ErrStreamClosed)
}

func TestStartListens(t *testing.T) {
	logger := logging.NewTestLogger(t)
	srv := NewServer(Config{Addr: "localhost:0", Path: "/viewer"}, logger)
	test.That(t, srv.Addr(), test.ShouldBeNil)
	test.That(t, srv.Start(context.Background()), test.ShouldBeNil)
	defer srv.Close()

	conn := dialViewer(t, "ws://"+srv.Addr().String()+"/viewer")
	defer conn.Close()
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, srv.NumViewers(), test.ShouldEqual, 1)
	})
}

func TestConfigValidate(t *testing.T) {
	test.That(t, (&Config{}).Validate("sinks.1"), test.ShouldNotBeNil)
	test.That(t, (&Config{Addr: ":0", SendBuffer: -1}).Validate("sinks.1"), test.ShouldNotBeNil)
	test.That(t, (&Config{Addr: ":0"}).Validate("sinks.1"), test.ShouldBeNil)
}
