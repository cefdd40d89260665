package types

import (
	"fmt"
	"math"
	"strings"
	"time"

	clienterrors "github.com/qrzlog/qrzlog/client/internal/errors"
)

// ------------------------------
// Well-known ADIF fields
// ------------------------------

// Lowercase ADIF names of the fields modeled on QsoRecord.
const (
	FieldCall            = "call"
	FieldStationCallsign = "station_callsign"
	FieldQSODate         = "qso_date"
	FieldTimeOn          = "time_on"
	FieldQSODateOff      = "qso_date_off"
	FieldTimeOff         = "time_off"
	FieldBand            = "band"
	FieldMode            = "mode"
	FieldFreq            = "freq"
	FieldRSTSent         = "rst_sent"
	FieldRSTRcvd         = "rst_rcvd"
	FieldName            = "name"
	FieldQTH             = "qth"
	FieldComment         = "comment"
)

// WellKnownFields lists the modeled fields in their fixed encoding order.
var WellKnownFields = []string{
	FieldCall, FieldStationCallsign, FieldQSODate, FieldTimeOn,
	FieldQSODateOff, FieldTimeOff, FieldBand, FieldMode, FieldFreq,
	FieldRSTSent, FieldRSTRcvd, FieldName, FieldQTH, FieldComment,
}

var wellKnown = func() map[string]struct{} {
	m := make(map[string]struct{}, len(WellKnownFields))
	for _, f := range WellKnownFields {
		m[f] = struct{}{}
	}
	return m
}()

// IsWellKnown reports whether name (any case) is a modeled field.
func IsWellKnown(name string) bool {
	_, ok := wellKnown[strings.ToLower(name)]
	return ok
}

// Field is one name/value pair outside the modeled set.
type Field struct {
	Name  string
	Value string
}

type optional[T any] struct {
	v  T
	ok bool
}

func some[T any](v T) optional[T] { return optional[T]{v: v, ok: true} }

func (o optional[T]) get() (T, bool) { return o.v, o.ok }

// ------------------------------
// QsoRecord
// ------------------------------

// QsoRecord is one logged contact. It is only produced by RecordBuilder.Build
// (directly or through the ADIF decoder) and never changes afterwards.
type QsoRecord struct {
	call            string
	stationCallsign string
	qsoDate         time.Time
	timeOn          time.Time
	qsoDateOff      optional[time.Time]
	timeOff         optional[time.Time]
	band            optional[string]
	mode            optional[string]
	freq            optional[float64]
	rstSent         optional[string]
	rstRcvd         optional[string]
	name            optional[string]
	qth             optional[string]
	comment         optional[string]
	additional      []Field
}

// Call is the worked station's callsign, uppercased.
func (r QsoRecord) Call() string { return r.call }

// StationCallsign is the logging station's own callsign, uppercased.
func (r QsoRecord) StationCallsign() string { return r.stationCallsign }

// QSODate is the contact date at UTC midnight.
func (r QsoRecord) QSODate() time.Time { return r.qsoDate }

// TimeOn is the contact start time of day.
func (r QsoRecord) TimeOn() time.Time { return r.timeOn }

func (r QsoRecord) QSODateOff() (time.Time, bool) { return r.qsoDateOff.get() }
func (r QsoRecord) TimeOff() (time.Time, bool)    { return r.timeOff.get() }
func (r QsoRecord) Band() (string, bool)          { return r.band.get() }
func (r QsoRecord) Mode() (string, bool)          { return r.mode.get() }

// Freq is the frequency in megahertz.
func (r QsoRecord) Freq() (float64, bool)   { return r.freq.get() }
func (r QsoRecord) RSTSent() (string, bool) { return r.rstSent.get() }
func (r QsoRecord) RSTRcvd() (string, bool) { return r.rstRcvd.get() }
func (r QsoRecord) Name() (string, bool)    { return r.name.get() }
func (r QsoRecord) QTH() (string, bool)     { return r.qth.get() }
func (r QsoRecord) Comment() (string, bool) { return r.comment.get() }

// AdditionalFields returns a copy of the unmodeled fields in insertion order.
func (r QsoRecord) AdditionalFields() []Field {
	out := make([]Field, len(r.additional))
	copy(out, r.additional)
	return out
}

// AdditionalField looks up an unmodeled field by name (any case).
func (r QsoRecord) AdditionalField(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, f := range r.additional {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Equal reports whether two records carry the same values. Additional
// fields are compared as a mapping, ignoring insertion order.
func (r QsoRecord) Equal(o QsoRecord) bool {
	if r.call != o.call || r.stationCallsign != o.stationCallsign ||
		!r.qsoDate.Equal(o.qsoDate) || !r.timeOn.Equal(o.timeOn) {
		return false
	}
	if !equalTime(r.qsoDateOff, o.qsoDateOff) || !equalTime(r.timeOff, o.timeOff) {
		return false
	}
	if r.band != o.band || r.mode != o.mode || r.freq != o.freq ||
		r.rstSent != o.rstSent || r.rstRcvd != o.rstRcvd ||
		r.name != o.name || r.qth != o.qth || r.comment != o.comment {
		return false
	}
	if len(r.additional) != len(o.additional) {
		return false
	}
	for _, f := range r.additional {
		if v, ok := o.AdditionalField(f.Name); !ok || v != f.Value {
			return false
		}
	}
	return true
}

func equalTime(a, b optional[time.Time]) bool {
	if a.ok != b.ok {
		return false
	}
	return !a.ok || a.v.Equal(b.v)
}

// String renders a short human-readable summary.
func (r QsoRecord) String() string {
	band, _ := r.band.get()
	mode, _ := r.mode.get()
	return fmt.Sprintf("%s de %s %s %s %s %s", r.call, r.stationCallsign,
		FormatDate(r.qsoDate), FormatTime(r.timeOn), band, mode)
}

// ------------------------------
// RecordBuilder
// ------------------------------

// RecordBuilder accumulates field values. Nothing is checked until Build or
// Validate, so incomplete builders are legal intermediate states.
type RecordBuilder struct {
	call            optional[string]
	stationCallsign optional[string]
	qsoDate         optional[time.Time]
	timeOn          optional[time.Time]
	qsoDateOff      optional[time.Time]
	timeOff         optional[time.Time]
	band            optional[string]
	mode            optional[string]
	freq            optional[float64]
	rstSent         optional[string]
	rstRcvd         optional[string]
	name            optional[string]
	qth             optional[string]
	comment         optional[string]
	additional      []Field
	// deferred problems from AdditionalField values routed to typed fields
	invalid map[string]string
}

// NewRecordBuilder returns an empty builder.
func NewRecordBuilder() *RecordBuilder { return &RecordBuilder{} }

func (b *RecordBuilder) Call(call string) *RecordBuilder {
	b.call = some(call)
	return b
}

func (b *RecordBuilder) StationCallsign(call string) *RecordBuilder {
	b.stationCallsign = some(call)
	return b
}

// QSODate keeps only the calendar date of d.
func (b *RecordBuilder) QSODate(d time.Time) *RecordBuilder {
	b.qsoDate = some(normalizeDate(d))
	b.clearInvalid(FieldQSODate)
	return b
}

// TimeOn keeps only the time of day of t, to the second.
func (b *RecordBuilder) TimeOn(t time.Time) *RecordBuilder {
	b.timeOn = some(normalizeTime(t))
	b.clearInvalid(FieldTimeOn)
	return b
}

func (b *RecordBuilder) QSODateOff(d time.Time) *RecordBuilder {
	b.qsoDateOff = some(normalizeDate(d))
	b.clearInvalid(FieldQSODateOff)
	return b
}

func (b *RecordBuilder) TimeOff(t time.Time) *RecordBuilder {
	b.timeOff = some(normalizeTime(t))
	b.clearInvalid(FieldTimeOff)
	return b
}

func (b *RecordBuilder) Band(band string) *RecordBuilder {
	b.band = some(band)
	return b
}

func (b *RecordBuilder) Mode(mode string) *RecordBuilder {
	b.mode = some(mode)
	return b
}

// Freq sets the frequency in megahertz.
func (b *RecordBuilder) Freq(mhz float64) *RecordBuilder {
	b.freq = some(mhz)
	b.clearInvalid(FieldFreq)
	return b
}

func (b *RecordBuilder) RSTSent(rst string) *RecordBuilder {
	b.rstSent = some(rst)
	return b
}

func (b *RecordBuilder) RSTRcvd(rst string) *RecordBuilder {
	b.rstRcvd = some(rst)
	return b
}

func (b *RecordBuilder) Name(name string) *RecordBuilder {
	b.name = some(name)
	return b
}

func (b *RecordBuilder) QTH(qth string) *RecordBuilder {
	b.qth = some(qth)
	return b
}

func (b *RecordBuilder) Comment(comment string) *RecordBuilder {
	b.comment = some(comment)
	return b
}

// AdditionalField sets an unmodeled field, overwriting by key. The key is
// lowercased; a key naming a well-known field is routed to that field so
// reserved names never appear among the additional fields.
func (b *RecordBuilder) AdditionalField(key, value string) *RecordBuilder {
	key = strings.ToLower(strings.TrimSpace(key))
	if IsWellKnown(key) {
		_ = b.Set(key, value)
		return b
	}
	for i := range b.additional {
		if b.additional[i].Name == key {
			b.additional[i].Value = value
			return b
		}
	}
	b.additional = append(b.additional, Field{Name: key, Value: value})
	return b
}

// Set assigns a well-known field from its ADIF text form. Values that fail
// to decode are returned as an error and also remembered so Validate
// reports them.
func (b *RecordBuilder) Set(field, value string) error {
	field = strings.ToLower(field)
	var err error
	switch field {
	case FieldCall:
		b.Call(value)
	case FieldStationCallsign:
		b.StationCallsign(value)
	case FieldQSODate, FieldQSODateOff:
		var d time.Time
		if d, err = ParseDate(value); err == nil {
			if field == FieldQSODate {
				b.QSODate(d)
			} else {
				b.QSODateOff(d)
			}
		}
	case FieldTimeOn, FieldTimeOff:
		var t time.Time
		if t, err = ParseTime(value); err == nil {
			if field == FieldTimeOn {
				b.TimeOn(t)
			} else {
				b.TimeOff(t)
			}
		}
	case FieldFreq:
		var f float64
		if f, err = ParseFreq(value); err == nil {
			b.Freq(f)
		}
	case FieldBand:
		b.Band(value)
	case FieldMode:
		b.Mode(value)
	case FieldRSTSent:
		b.RSTSent(value)
	case FieldRSTRcvd:
		b.RSTRcvd(value)
	case FieldName:
		b.Name(value)
	case FieldQTH:
		b.QTH(value)
	case FieldComment:
		b.Comment(value)
	default:
		return fmt.Errorf("%q is not a well-known field", field)
	}
	if err != nil {
		if b.invalid == nil {
			b.invalid = make(map[string]string)
		}
		b.invalid[field] = err.Error()
	}
	return err
}

func (b *RecordBuilder) clearInvalid(field string) {
	delete(b.invalid, field)
}

// Validate returns every missing or invalid field, in well-known field order.
// An empty result means Build will succeed.
func (b *RecordBuilder) Validate() []FieldError {
	var errs []FieldError
	checkCall := func(field string, v optional[string]) {
		if !v.ok || strings.TrimSpace(v.v) == "" {
			errs = append(errs, FieldError{Field: field, Problem: "required"})
			return
		}
		if problem := callsignProblem(strings.TrimSpace(v.v)); problem != "" {
			errs = append(errs, FieldError{Field: field, Problem: problem})
		}
	}
	checkCall(FieldCall, b.call)
	checkCall(FieldStationCallsign, b.stationCallsign)

	for _, field := range WellKnownFields {
		if problem, ok := b.invalid[field]; ok {
			errs = append(errs, FieldError{Field: field, Problem: problem})
			continue
		}
		switch field {
		case FieldQSODate:
			if !b.qsoDate.ok {
				errs = append(errs, FieldError{Field: field, Problem: "required"})
			} else if y := b.qsoDate.v.Year(); y < 1 || y > 9999 {
				errs = append(errs, FieldError{Field: field, Problem: "year out of range"})
			}
		case FieldQSODateOff:
			if b.qsoDateOff.ok {
				if y := b.qsoDateOff.v.Year(); y < 1 || y > 9999 {
					errs = append(errs, FieldError{Field: field, Problem: "year out of range"})
				}
			}
		case FieldTimeOn:
			if !b.timeOn.ok {
				errs = append(errs, FieldError{Field: field, Problem: "required"})
			}
		case FieldFreq:
			if f, ok := b.freq.get(); ok && (math.IsNaN(f) || math.IsInf(f, 0) || f <= 0) {
				errs = append(errs, FieldError{Field: field, Problem: "must be a positive number of MHz"})
			}
		}
	}
	for _, f := range b.additional {
		if !validFieldName(f.Name) {
			errs = append(errs, FieldError{Field: f.Name, Problem: "invalid ADIF field name"})
		}
	}
	return errs
}

// validFieldName rejects names that cannot be written inside an ADIF tag.
func validFieldName(name string) bool {
	if name == "" || name == "eor" || name == "eoh" {
		return false
	}
	for i := 0; i < len(name); i++ {
		switch c := name[i]; {
		case c <= ' ' || c > '~':
			return false
		case c == ':' || c == '<' || c == '>' || c == ',' || c == '{' || c == '}':
			return false
		}
	}
	return true
}

// Build validates the accumulated state and returns an independent record.
// It may be called repeatedly.
func (b *RecordBuilder) Build() (QsoRecord, error) {
	if errs := b.Validate(); len(errs) > 0 {
		return QsoRecord{}, clienterrors.InvalidParams("qso record", ValidationErrors(errs))
	}
	r := QsoRecord{
		call:            strings.ToUpper(strings.TrimSpace(b.call.v)),
		stationCallsign: strings.ToUpper(strings.TrimSpace(b.stationCallsign.v)),
		qsoDate:         b.qsoDate.v,
		timeOn:          b.timeOn.v,
		qsoDateOff:      b.qsoDateOff,
		timeOff:         b.timeOff,
		band:            b.band,
		mode:            b.mode,
		freq:            b.freq,
		rstSent:         b.rstSent,
		rstRcvd:         b.rstRcvd,
		name:            b.name,
		qth:             b.qth,
		comment:         b.comment,
	}
	if len(b.additional) > 0 {
		r.additional = make([]Field, len(b.additional))
		copy(r.additional, b.additional)
	}
	return r, nil
}

// callsignProblem returns why s is not an acceptable callsign, or "".
func callsignProblem(s string) string {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c > '~' {
			return "must be printable ASCII without spaces"
		}
	}
	return ""
}

// ToBuilder returns a builder seeded with r's values, for deriving a
// modified copy.
func (r QsoRecord) ToBuilder() *RecordBuilder {
	b := &RecordBuilder{
		call:            some(r.call),
		stationCallsign: some(r.stationCallsign),
		qsoDate:         some(r.qsoDate),
		timeOn:          some(r.timeOn),
		qsoDateOff:      r.qsoDateOff,
		timeOff:         r.timeOff,
		band:            r.band,
		mode:            r.mode,
		freq:            r.freq,
		rstSent:         r.rstSent,
		rstRcvd:         r.rstRcvd,
		name:            r.name,
		qth:             r.qth,
		comment:         r.comment,
	}
	b.additional = r.AdditionalFields()
	return b
}
