package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/relay"
	"golang.org/x/sync/errgroup"
)

// pacing makes print mode exercise the controller: the stream is paused
// after pauseAfter chunks and resumed resumeAfter later.
type pacing struct {
	pauseAfter  int
	resumeAfter time.Duration
}

// printStream streams one reply to out. Cancelling ctx (SIGINT) cancels the
// stream; the partial text stays printed and the cancellation is returned.
func printStream(ctx context.Context, c *relay.Client, a relay.Adapter, req relay.Request, out io.Writer, p pacing, logger *slog.Logger) (relay.Result, error) {
	reached := make(chan struct{})
	n := 0
	sink := func(delta, _ string) {
		fmt.Fprint(out, delta)
		n++
		if n == p.pauseAfter {
			close(reached)
		}
	}
	h, err := c.StartStream(ctx, a, req, sink)
	if err != nil {
		return relay.Result{}, err
	}

	var g errgroup.Group
	if p.pauseAfter > 0 {
		g.Go(func() error {
			select {
			case <-reached:
			case <-h.Done():
				return nil
			}
			if !h.Pause() {
				return nil
			}
			logger.Info("stream paused", "stream_id", h.ID(), "chunks", p.pauseAfter, "for", p.resumeAfter)
			select {
			case <-time.After(p.resumeAfter):
				h.Resume()
			case <-h.Done():
			}
			return nil
		})
	}
	var res relay.Result
	g.Go(func() error {
		var err error
		res, err = h.Wait(context.Background())
		return err
	})
	err = g.Wait()
	<-h.Finished()
	fmt.Fprintln(out)

	st := h.Stats()
	if err != nil {
		logger.Info("stream ended", "stream_id", h.ID(), "err", err, "chunks", st.Chunks)
		return relay.Result{}, err
	}
	logger.Info("stream finished",
		"stream_id", h.ID(),
		"model", res.Model,
		"finish_reason", string(res.FinishReason),
		"chunks", st.Chunks,
		"elapsed", st.Elapsed,
		"paused_for", st.PausedFor,
	)
	return res, nil
}
