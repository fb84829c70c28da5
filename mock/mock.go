// Package mock provides test doubles for relay interfaces using function
// fields.
package mock

import (
	"context"
	"io"

	"github.com/fwojciec/relay"
)

// Interface compliance checks.
var (
	_ relay.Issuer  = (*Issuer)(nil)
	_ relay.Adapter = (*Adapter)(nil)
	_ relay.Decoder = (*Decoder)(nil)
)

// Issuer is a test double for relay.Issuer.
// Set IssueFn before calling Issue.
type Issuer struct {
	IssueFn func(ctx context.Context, call relay.Call) (io.ReadCloser, error)
}

// Issue delegates to IssueFn.
func (i *Issuer) Issue(ctx context.Context, call relay.Call) (io.ReadCloser, error) {
	return i.IssueFn(ctx, call)
}

// Adapter is a test double for relay.Adapter. LabelFn and NewCallFn are
// nil-safe (LabelValue and an empty call); NewDecoderFn panics when nil to
// catch missing setup.
type Adapter struct {
	LabelValue   string
	NewCallFn    func(req relay.Request) (relay.Call, error)
	NewDecoderFn func() relay.Decoder
}

// Label returns LabelValue.
func (a *Adapter) Label() string { return a.LabelValue }

// NewCall delegates to NewCallFn. Returns a call carrying only the model
// and label when NewCallFn is nil.
func (a *Adapter) NewCall(req relay.Request) (relay.Call, error) {
	if a.NewCallFn == nil {
		return relay.Call{Provider: a.LabelValue, Model: req.Model, Stream: true}, nil
	}
	return a.NewCallFn(req)
}

// NewDecoder delegates to NewDecoderFn.
func (a *Adapter) NewDecoder() relay.Decoder {
	return a.NewDecoderFn()
}

// Decoder is a test double for relay.Decoder. FlushFn is nil-safe.
type Decoder struct {
	FeedFn  func(p []byte) []relay.Record
	FlushFn func() []relay.Record
}

// Feed delegates to FeedFn.
func (d *Decoder) Feed(p []byte) []relay.Record {
	return d.FeedFn(p)
}

// Flush delegates to FlushFn. Returns nil when FlushFn is nil.
func (d *Decoder) Flush() []relay.Record {
	if d.FlushFn == nil {
		return nil
	}
	return d.FlushFn()
}
