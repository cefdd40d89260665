// Package adif converts between ADIF text and QSO records.
//
// ADIF fields are written as <tag:length[:type]>value. The declared length is
// authoritative: values may contain '<' and '>' and are never found by
// delimiter scanning. Records end with <eor>; an optional header ends with
// <eoh>. Tags are case-insensitive.
package adif

import (
	"bytes"
	"strconv"
	"strings"

	clienterrors "github.com/qrzlog/qrzlog/client/internal/errors"
	"github.com/qrzlog/qrzlog/client/internal/types"
)

const (
	tagEOR = "eor"
	tagEOH = "eoh"
)

// fieldSetter applies one decoded value to the record under construction.
type fieldSetter func(b *types.RecordBuilder, value string) error

func stringSetter(set func(*types.RecordBuilder, string) *types.RecordBuilder) fieldSetter {
	return func(b *types.RecordBuilder, v string) error {
		set(b, v)
		return nil
	}
}

func typedSetter(field string) fieldSetter {
	return func(b *types.RecordBuilder, v string) error { return b.Set(field, v) }
}

// knownFields maps lowercase tag names to record attributes. Tags absent
// from the table become additional fields.
var knownFields = map[string]fieldSetter{
	types.FieldCall:            stringSetter((*types.RecordBuilder).Call),
	types.FieldStationCallsign: stringSetter((*types.RecordBuilder).StationCallsign),
	types.FieldQSODate:         typedSetter(types.FieldQSODate),
	types.FieldQSODateOff:      typedSetter(types.FieldQSODateOff),
	types.FieldTimeOn:          typedSetter(types.FieldTimeOn),
	types.FieldTimeOff:         typedSetter(types.FieldTimeOff),
	types.FieldFreq:            typedSetter(types.FieldFreq),
	types.FieldBand:            stringSetter((*types.RecordBuilder).Band),
	types.FieldMode:            stringSetter((*types.RecordBuilder).Mode),
	types.FieldRSTSent:         stringSetter((*types.RecordBuilder).RSTSent),
	types.FieldRSTRcvd:         stringSetter((*types.RecordBuilder).RSTRcvd),
	types.FieldName:            stringSetter((*types.RecordBuilder).Name),
	types.FieldQTH:             stringSetter((*types.RecordBuilder).QTH),
	types.FieldComment:         stringSetter((*types.RecordBuilder).Comment),
}

// DecodeString is Decode for string input.
func DecodeString(s string) ([]types.QsoRecord, error) {
	return Decode([]byte(s))
}

// Decode parses zero or more records in source order. Any header is
// discarded. Empty or whitespace-only input yields no records.
func Decode(data []byte) ([]types.QsoRecord, error) {
	d := &decoder{buf: data, cur: types.NewRecordBuilder()}
	if err := d.run(); err != nil {
		return nil, err
	}
	return d.records, nil
}

type decoder struct {
	buf     []byte
	pos     int
	records []types.QsoRecord

	cur       *types.RecordBuilder
	curFields int
	sawTag    bool
	sawEOH    bool

	// headerErr holds the first stray-text error seen before any <eoh> or
	// <eor>. Prose in a header is legal, so it is dropped at <eoh> and
	// reported at the first <eor> or end of input.
	headerErr error
}

func (d *decoder) run() error {
	for {
		rel := bytes.IndexByte(d.buf[d.pos:], '<')
		if rel < 0 {
			return d.finish()
		}
		// Text before the first tag is header preamble; after that only
		// whitespace may separate fields.
		if d.sawTag {
			if err := d.checkGap(d.buf[d.pos : d.pos+rel]); err != nil {
				if !d.inHeader() {
					return err
				}
				if d.headerErr == nil {
					d.headerErr = err
				}
			}
		}
		if err := d.readTag(d.pos + rel); err != nil {
			return err
		}
		d.sawTag = true
	}
}

func (d *decoder) readTag(start int) error {
	rel := bytes.IndexByte(d.buf[start+1:], '>')
	if rel < 0 {
		return clienterrors.ADIFParsef("unterminated tag at offset %d", start)
	}
	inner := string(d.buf[start+1 : start+1+rel])
	d.pos = start + 1 + rel + 1

	parts := strings.SplitN(inner, ":", 3)
	name := strings.ToLower(strings.TrimSpace(parts[0]))
	switch name {
	case tagEOR:
		if d.headerErr != nil {
			return d.headerErr
		}
		return d.endRecord(start)
	case tagEOH:
		d.cur = types.NewRecordBuilder()
		d.curFields = 0
		d.sawEOH = true
		d.headerErr = nil
		return nil
	case "":
		return clienterrors.ADIFParsef("empty tag name at offset %d", start)
	}
	if len(parts) < 2 {
		return clienterrors.ADIFParsef("tag %q at offset %d has no length", name, start)
	}

	lenText := strings.TrimSpace(parts[1])
	length, err := strconv.Atoi(lenText)
	if err != nil || length < 0 || strings.HasPrefix(lenText, "+") {
		return clienterrors.ADIFParsef("tag %q at offset %d: length %q is not a non-negative integer", name, start, parts[1])
	}
	if remaining := len(d.buf) - d.pos; length > remaining {
		return clienterrors.ADIFParsef("tag %q at offset %d declares %d bytes but only %d remain", name, start, length, remaining)
	}
	value := string(d.buf[d.pos : d.pos+length])
	d.pos += length

	if set, ok := knownFields[name]; ok {
		if err := set(d.cur, value); err != nil {
			return clienterrors.ADIFParsef("field %q at offset %d: %v", name, start, err)
		}
	} else {
		d.cur.AdditionalField(name, value)
	}
	d.curFields++
	return nil
}

// checkGap rejects stray text between tags, which is how a declared length
// shorter than the value actually present shows up.
func (d *decoder) checkGap(gap []byte) error {
	if len(bytes.TrimSpace(gap)) == 0 {
		return nil
	}
	return clienterrors.ADIFParsef("unexpected text %q at offset %d (declared field length does not match value)",
		truncate(string(bytes.TrimSpace(gap)), 16), d.pos)
}

// inHeader reports whether the scan may still be inside a header.
func (d *decoder) inHeader() bool {
	return !d.sawEOH && len(d.records) == 0
}

func (d *decoder) endRecord(offset int) error {
	rec, err := d.cur.Build()
	if err != nil {
		var verrs types.ValidationErrors
		clienterrors.As(err, &verrs)
		return &clienterrors.Error{
			Kind:   clienterrors.KindADIFParse,
			Reason: "record " + strconv.Itoa(len(d.records)+1) + " ending at offset " + strconv.Itoa(offset) + " is invalid",
			Err:    verrs,
		}
	}
	d.records = append(d.records, rec)
	d.cur = types.NewRecordBuilder()
	d.curFields = 0
	return nil
}

func (d *decoder) finish() error {
	if d.headerErr != nil {
		return d.headerErr
	}
	if d.sawTag {
		if err := d.checkGap(d.buf[d.pos:]); err != nil {
			return err
		}
	}
	if d.curFields > 0 {
		return clienterrors.ADIFParsef("record %d has %d fields but no <eor> before end of input", len(d.records)+1, d.curFields)
	}
	if len(d.records) == 0 && !d.sawEOH && len(bytes.TrimSpace(d.buf)) > 0 {
		return clienterrors.ADIFParsef("no <eor> found in %d bytes of input", len(d.buf))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
