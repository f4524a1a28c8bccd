package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"go.viam.com/simrecord/logging"
	"go.viam.com/simrecord/recorder"
	"go.viam.com/simrecord/recording"
	"go.viam.com/simrecord/recording/badgerstore"
)

type pathSummary struct {
	entries   int
	lastFrame int64
	static    bool
}

func replayAction(c *cli.Context, logger logging.Logger) error {
	store, err := badgerstore.Open(badgerstore.Config{Path: c.String(flagDB)}, logger.Sublogger("badger"))
	if err != nil {
		return err
	}
	defer store.Close()

	id := c.String(flagRecording)
	if id == "" {
		ids, err := store.Recordings(c.Context)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(c.App.Writer, id)
		}
		return nil
	}
	return summarize(c.Context, store, id, c.App.Writer)
}

func summarize(ctx context.Context, store *badgerstore.Store, id string, out io.Writer) error {
	summaries := map[string]*pathSummary{}
	err := store.Replay(ctx, id, func(e recording.Entry) error {
		s, ok := summaries[e.Path]
		if !ok {
			s = &pathSummary{lastFrame: -1}
			summaries[e.Path] = s
		}
		s.entries++
		s.static = s.static || e.Static
		if frame, ok := e.Time(recorder.TimelineRealtime); ok && frame > s.lastFrame {
			s.lastFrame = frame
		}
		return nil
	})
	if err != nil {
		return err
	}
	paths := lo.Keys(summaries)
	sort.Strings(paths)
	for _, p := range paths {
		s := summaries[p]
		switch {
		case s.lastFrame >= 0:
			fmt.Fprintf(out, "%s\t%d entries\tlast frame %d\n", p, s.entries, s.lastFrame)
		case s.static:
			fmt.Fprintf(out, "%s\t%d entries\tstatic\n", p, s.entries)
		default:
			fmt.Fprintf(out, "%s\t%d entries\n", p, s.entries)
		}
	}
	return nil
}
