package types

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	clienterrors "github.com/qrzlog/qrzlog/client/internal/errors"
)

func validBuilder() *RecordBuilder {
	return NewRecordBuilder().
		Call("w1aw").
		StationCallsign(" k1abc ").
		QSODate(time.Date(2024, time.January, 15, 22, 10, 0, 0, time.UTC)).
		TimeOn(TimeOfDay(14, 30, 0))
}

func TestBuild_NormalizesCallsignsAndDate(t *testing.T) {
	t.Parallel()
	r, err := validBuilder().Band("20m").Mode("SSB").Freq(14.2).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if r.Call() != "W1AW" || r.StationCallsign() != "K1ABC" {
		t.Fatalf("callsigns not normalized: %q %q", r.Call(), r.StationCallsign())
	}
	if !r.QSODate().Equal(Date(2024, time.January, 15)) {
		t.Fatalf("date not truncated: %v", r.QSODate())
	}
	if f, ok := r.Freq(); !ok || f != 14.2 {
		t.Fatalf("freq = %v,%v", f, ok)
	}
	if _, ok := r.Comment(); ok {
		t.Fatal("unset optional reported present")
	}
}

func TestValidate_ReportsEveryMissingField(t *testing.T) {
	t.Parallel()
	got := NewRecordBuilder().Band("40m").Validate()
	want := []FieldError{
		{Field: FieldCall, Problem: "required"},
		{Field: FieldStationCallsign, Problem: "required"},
		{Field: FieldQSODate, Problem: "required"},
		{Field: FieldTimeOn, Problem: "required"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Validate mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_InvalidParams(t *testing.T) {
	t.Parallel()
	cases := map[string]*RecordBuilder{
		"missing call":      NewRecordBuilder().StationCallsign("K1ABC").QSODate(Date(2024, 1, 1)).TimeOn(TimeOfDay(1, 2, 3)),
		"non-ascii call":    validBuilder().Call("W1ÅW"),
		"call with space":   validBuilder().Call("W1 AW"),
		"zero freq":         validBuilder().Freq(0),
		"bad routed date":   validBuilder().AdditionalField("QSO_DATE_OFF", "20241301"),
		"year out of range": validBuilder().QSODate(Date(10000, 1, 1)),
	}
	for name, b := range cases {
		_, err := b.Build()
		if !errors.Is(err, clienterrors.ErrInvalidParams) {
			t.Fatalf("%s: expected InvalidParams, got %v", name, err)
		}
		var verrs ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			t.Fatalf("%s: expected structured field errors, got %v", name, err)
		}
	}
}

func TestAdditionalField_OverwritesAndRoutesReservedNames(t *testing.T) {
	t.Parallel()
	r, err := validBuilder().
		AdditionalField("GRIDSQUARE", "FN31").
		AdditionalField("gridsquare", "FN42").
		AdditionalField("Band", "20m").
		AdditionalField("freq", "14.074").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []Field{{Name: "gridsquare", Value: "FN42"}}
	if diff := cmp.Diff(want, r.AdditionalFields()); diff != "" {
		t.Fatalf("additional fields mismatch (-want +got):\n%s", diff)
	}
	if band, _ := r.Band(); band != "20m" {
		t.Fatalf("band not routed: %q", band)
	}
	if f, _ := r.Freq(); f != 14.074 {
		t.Fatalf("freq not routed: %v", f)
	}
}

func TestBuild_RepeatableAndIndependent(t *testing.T) {
	t.Parallel()
	b := validBuilder().AdditionalField("gridsquare", "FN31")
	r1, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	r2, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if !r1.Equal(r2) {
		t.Fatal("repeated builds differ")
	}
	fields := r1.AdditionalFields()
	fields[0].Value = "mutated"
	if v, _ := r1.AdditionalField("gridsquare"); v != "FN31" {
		t.Fatal("record mutated through accessor copy")
	}
	b.AdditionalField("gridsquare", "FN42")
	if v, _ := r2.AdditionalField("gridsquare"); v != "FN31" {
		t.Fatal("record mutated through builder")
	}
}

func TestSet_LaterValidValueClearsEarlierProblem(t *testing.T) {
	t.Parallel()
	b := validBuilder()
	if err := b.Set(FieldFreq, "14.2x"); err == nil {
		t.Fatal("expected parse error")
	}
	if len(b.Validate()) == 0 {
		t.Fatal("invalid freq should be reported")
	}
	b.Freq(14.2)
	if errs := b.Validate(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestToBuilder_DerivesCopy(t *testing.T) {
	t.Parallel()
	r, err := validBuilder().Mode("CW").Build()
	if err != nil {
		t.Fatal(err)
	}
	r2, err := r.ToBuilder().Mode("FT8").Build()
	if err != nil {
		t.Fatal(err)
	}
	if m, _ := r.Mode(); m != "CW" {
		t.Fatalf("original changed: %s", m)
	}
	if m, _ := r2.Mode(); m != "FT8" {
		t.Fatalf("derived mode = %s", m)
	}
}

func TestParseTime(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in      string
		h, m, s int
		ok      bool
	}{
		{"1430", 14, 30, 0, true},
		{"143015", 14, 30, 15, true},
		{"0000", 0, 0, 0, true},
		{"2400", 0, 0, 0, false},
		{"1460", 0, 0, 0, false},
		{"143", 0, 0, 0, false},
		{"14:30", 0, 0, 0, false},
	}
	for _, c := range cases {
		got, err := ParseTime(c.in)
		if c.ok != (err == nil) {
			t.Fatalf("ParseTime(%q) err = %v", c.in, err)
		}
		if c.ok && !got.Equal(TimeOfDay(c.h, c.m, c.s)) {
			t.Fatalf("ParseTime(%q) = %v", c.in, got)
		}
	}
}

func TestParseDateAndFreq(t *testing.T) {
	t.Parallel()
	if d, err := ParseDate("20240115"); err != nil || !d.Equal(Date(2024, time.January, 15)) {
		t.Fatalf("ParseDate = %v, %v", d, err)
	}
	for _, bad := range []string{"2024011", "20240230", "2024-1-15", "abcdefgh"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("ParseDate(%q) should fail", bad)
		}
	}
	if f, err := ParseFreq("7.074"); err != nil || f != 7.074 {
		t.Fatalf("ParseFreq = %v, %v", f, err)
	}
	for _, bad := range []string{"", "14.2MHz", "NaN", "Inf", "1e400"} {
		if _, err := ParseFreq(bad); err == nil {
			t.Fatalf("ParseFreq(%q) should fail", bad)
		}
	}
}
