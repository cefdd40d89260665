package adif

import (
	"strconv"
	"strings"
	"time"

	"github.com/qrzlog/qrzlog/client/internal/types"
)

// ProgramID identifies this library in exported headers.
const ProgramID = "qrzlog"

const adifVersion = "3.1.4"

// Encode renders one record as ADIF terminated by <eor>. Well-known fields
// are written in a fixed order, then additional fields in insertion order.
// Absent optional fields are omitted.
func Encode(r types.QsoRecord) string {
	var sb strings.Builder
	encodeTo(&sb, r)
	return sb.String()
}

// EncodeAll renders a complete ADIF document: a short header followed by one
// line per record.
func EncodeAll(records []types.QsoRecord) string {
	var sb strings.Builder
	sb.WriteString(ProgramID + " ADIF export\n")
	writeField(&sb, "adif_ver", adifVersion)
	writeField(&sb, "programid", ProgramID)
	sb.WriteString("<eoh>\n")
	for _, r := range records {
		encodeTo(&sb, r)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func encodeTo(sb *strings.Builder, r types.QsoRecord) {
	writeField(sb, types.FieldCall, r.Call())
	writeField(sb, types.FieldStationCallsign, r.StationCallsign())
	writeField(sb, types.FieldQSODate, types.FormatDate(r.QSODate()))
	writeField(sb, types.FieldTimeOn, types.FormatTime(r.TimeOn()))
	writeOptional(sb, types.FieldQSODateOff, r.QSODateOff, types.FormatDate)
	writeOptional(sb, types.FieldTimeOff, r.TimeOff, types.FormatTime)
	writeOptional(sb, types.FieldBand, r.Band, identity)
	writeOptional(sb, types.FieldMode, r.Mode, identity)
	writeOptional(sb, types.FieldFreq, r.Freq, types.FormatFreq)
	writeOptional(sb, types.FieldRSTSent, r.RSTSent, identity)
	writeOptional(sb, types.FieldRSTRcvd, r.RSTRcvd, identity)
	writeOptional(sb, types.FieldName, r.Name, identity)
	writeOptional(sb, types.FieldQTH, r.QTH, identity)
	writeOptional(sb, types.FieldComment, r.Comment, identity)
	for _, f := range r.AdditionalFields() {
		writeField(sb, f.Name, f.Value)
	}
	sb.WriteString("<eor>")
}

func identity(s string) string { return s }

func writeOptional[T string | float64 | time.Time](sb *strings.Builder, name string, get func() (T, bool), format func(T) string) {
	if v, ok := get(); ok {
		writeField(sb, name, format(v))
	}
}

// writeField emits <name:len>value. The length is the byte length of value.
func writeField(sb *strings.Builder, name, value string) {
	sb.WriteByte('<')
	sb.WriteString(name)
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(len(value)))
	sb.WriteByte('>')
	sb.WriteString(value)
}
