// Package sse decodes Server-Sent Events framing into relay records.
package sse

import (
	"bytes"

	"github.com/fwojciec/relay"
)

// Interface compliance check.
var _ relay.Decoder = (*Decoder)(nil)

// Decoder is an incremental SSE frame decoder. A record ends at an empty
// line; "event:" sets its label and "data:" lines are joined with "\n".
// Comments, "id:", "retry:" and unknown fields are ignored, and records
// without data are dropped. CRLF and lone CR line endings are accepted.
//
// The zero value is ready to use. A Decoder is not safe for concurrent use.
type Decoder struct {
	buf       []byte // unterminated line, LF-normalized
	pendingCR bool   // a trailing CR waiting to see whether LF follows

	event   string
	data    []byte
	hasData bool
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder { return &Decoder{} }

// Feed appends p and returns every record it completes.
func (d *Decoder) Feed(p []byte) []relay.Record {
	d.append(p)
	var recs []relay.Record
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		if rec, ok := d.line(d.buf[:i]); ok {
			recs = append(recs, rec)
		}
		d.buf = d.buf[i+1:]
	}
	d.compact()
	return recs
}

// Flush ends the stream: a held CR and an unterminated last line are
// processed, and a record with data is emitted even without the closing
// empty line. The decoder is empty afterwards.
func (d *Decoder) Flush() []relay.Record {
	var recs []relay.Record
	if d.pendingCR || len(d.buf) > 0 {
		d.pendingCR = false
		if rec, ok := d.line(d.buf); ok {
			recs = append(recs, rec)
		}
	}
	if rec, ok := d.dispatch(); ok {
		recs = append(recs, rec)
	}
	d.buf = nil
	return recs
}

// append copies p into the buffer converting CRLF and CR to LF. A CR at the
// end of p is held until the next byte shows whether it starts a CRLF.
func (d *Decoder) append(p []byte) {
	for _, b := range p {
		if d.pendingCR {
			d.pendingCR = false
			d.buf = append(d.buf, '\n')
			if b == '\n' {
				continue
			}
		}
		if b == '\r' {
			d.pendingCR = true
			continue
		}
		d.buf = append(d.buf, b)
	}
}

// compact moves the unterminated tail to the start of the buffer so the
// backing array does not grow with the stream.
func (d *Decoder) compact() {
	if len(d.buf) == 0 {
		d.buf = d.buf[:0:0]
		return
	}
	d.buf = append([]byte(nil), d.buf...)
}

func (d *Decoder) line(line []byte) (relay.Record, bool) {
	if len(line) == 0 {
		return d.dispatch()
	}
	if line[0] == ':' {
		return relay.Record{}, false
	}
	field, value := line, []byte(nil)
	if i := bytes.IndexByte(line, ':'); i >= 0 {
		field, value = line[:i], line[i+1:]
		if len(value) > 0 && value[0] == ' ' {
			value = value[1:]
		}
	}
	switch string(field) {
	case "event":
		d.event = string(value)
	case "data":
		if d.hasData {
			d.data = append(d.data, '\n')
		}
		d.data = append(d.data, value...)
		d.hasData = true
	}
	return relay.Record{}, false
}

func (d *Decoder) dispatch() (relay.Record, bool) {
	rec := relay.Record{Event: d.event, Data: d.data}
	ok := d.hasData
	d.event, d.data, d.hasData = "", nil, false
	return rec, ok
}
