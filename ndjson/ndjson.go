// Package ndjson decodes newline-delimited JSON framing into relay records.
package ndjson

import (
	"bytes"

	"github.com/fwojciec/relay"
	"github.com/tidwall/gjson"
)

// Interface compliance check.
var _ relay.Decoder = (*Decoder)(nil)

// Decoder is an incremental NDJSON frame decoder. Each line is one record.
// Blank lines and lines that are not valid JSON (keep-alives, proxy noise)
// are dropped. CRLF and lone CR line endings are accepted.
//
// The zero value is ready to use. A Decoder is not safe for concurrent use.
type Decoder struct {
	buf       []byte
	pendingCR bool
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder { return &Decoder{} }

// Feed appends p and returns a record for every complete JSON line.
func (d *Decoder) Feed(p []byte) []relay.Record {
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

	var recs []relay.Record
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		if rec, ok := record(d.buf[:i]); ok {
			recs = append(recs, rec)
		}
		d.buf = d.buf[i+1:]
	}
	if len(d.buf) == 0 {
		d.buf = d.buf[:0:0]
	} else {
		d.buf = append([]byte(nil), d.buf...)
	}
	return recs
}

// Flush returns the unterminated last line as a record when it is valid
// JSON. The decoder is empty afterwards.
func (d *Decoder) Flush() []relay.Record {
	rec, ok := record(d.buf)
	d.buf, d.pendingCR = nil, false
	if !ok {
		return nil
	}
	return []relay.Record{rec}
}

func record(line []byte) (relay.Record, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || !gjson.ValidBytes(line) {
		return relay.Record{}, false
	}
	return relay.Record{Data: append([]byte(nil), line...)}, true
}
