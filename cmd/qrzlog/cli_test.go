package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const cliKey = "ABCD-1234-EFGH-5678"

const sampleADIF = "exported\n<adif_ver:5>3.1.4<eoh>\n" +
	"<call:4>W1AW<station_callsign:5>K1ABC<qso_date:8>20240115<time_on:4>1430<band:3>20m<mode:3>SSB<eor>\n" +
	"<call:5>DL1XX<station_callsign:5>K1ABC<qso_date:8>20240116<time_on:6>080000<band:3>40m<mode:2>CW<eor>\n"

func escapeValue(s string) string { return strings.ReplaceAll(url.QueryEscape(s), "+", "%20") }

type formLog struct {
	mu    sync.Mutex
	forms []url.Values
}

func (l *formLog) add(f url.Values) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.forms = append(l.forms, f)
	return len(l.forms)
}

func (l *formLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.forms)
}

func (l *formLog) at(i int) url.Values {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.forms[i]
}

// stubLogbook answers every action with a canned envelope and records the
// forms it received.
func stubLogbook(t *testing.T) (*httptest.Server, *formLog) {
	t.Helper()
	forms := &formLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		n := forms.add(r.PostForm)
		switch r.PostForm.Get("ACTION") {
		case "INSERT":
			fmt.Fprintf(w, "RESULT=OK&LOGID=%d&COUNT=1", 500+n)
		case "FETCH":
			adif := "<call:4>W1AW<station_callsign:5>K1ABC<qso_date:8>20240115<time_on:4>1430<eor>"
			fmt.Fprint(w, "RESULT=OK&COUNT=1&LOGIDS=77&ADIF="+escapeValue(adif))
		case "DELETE":
			fmt.Fprint(w, "RESULT=PARTIAL&COUNT=1&LOGIDS=9")
		case "STATUS":
			fmt.Fprint(w, "RESULT=OK&DATA="+escapeValue("COUNT=12&CALLSIGN=K1ABC"))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, forms
}

func run(t *testing.T, srv *httptest.Server, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out strings.Builder
	root.SetOut(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--api-key", cliKey, "--endpoint", srv.URL}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCLI_StatusSorted(t *testing.T) {
	srv, forms := stubLogbook(t)
	out, err := run(t, srv, "", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if out != "CALLSIGN=K1ABC\nCOUNT=12\n" {
		t.Fatalf("output = %q", out)
	}
	if forms.at(0).Get("KEY") != cliKey {
		t.Fatalf("key not sent: %v", forms.at(0))
	}
}

func TestCLI_InsertFromStdin(t *testing.T) {
	srv, forms := stubLogbook(t)
	out, err := run(t, srv, sampleADIF, "insert", "--replace")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if forms.count() != 2 || forms.at(1).Get("OPTION") != "REPLACE" {
		t.Fatalf("forms = %d, second OPTION %q", forms.count(), forms.at(forms.count()-1).Get("OPTION"))
	}
	if !strings.Contains(out, "inserted W1AW logid=501") || !strings.Contains(out, "inserted DL1XX logid=502") {
		t.Fatalf("output = %q", out)
	}
}

func TestCLI_InsertAsync(t *testing.T) {
	srv, forms := stubLogbook(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "log.adi")
	if err := os.WriteFile(path, []byte(sampleADIF), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := run(t, srv, "", "insert", "--async", "--file", path)
	if err != nil {
		t.Fatalf("insert --async: %v", err)
	}
	if forms.count() != 2 || !strings.Contains(out, "queued 2 records for 1 stations") {
		t.Fatalf("forms=%d output=%q", forms.count(), out)
	}
}

func TestCLI_FetchADIF(t *testing.T) {
	srv, forms := stubLogbook(t)
	out, err := run(t, srv, "", "fetch", "--band", "20m", "--adif")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := forms.at(0).Get("OPTION"); got != "BAND:20m" {
		t.Fatalf("OPTION = %q", got)
	}
	if !strings.Contains(out, "<eoh>") || !strings.Contains(out, "<call:4>W1AW") {
		t.Fatalf("output = %q", out)
	}
}

func TestCLI_FetchAllTable(t *testing.T) {
	srv, forms := stubLogbook(t)
	out, err := run(t, srv, "", "fetch", "--all")
	if err != nil {
		t.Fatalf("fetch --all: %v", err)
	}
	if got := forms.at(0).Get("OPTION"); got != "ALL,MAX:250" {
		t.Fatalf("OPTION = %q", got)
	}
	if !strings.HasPrefix(out, "77\t") {
		t.Fatalf("output = %q", out)
	}
}

func TestCLI_Delete(t *testing.T) {
	srv, forms := stubLogbook(t)
	out, err := run(t, srv, "", "delete", "8", "9")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := forms.at(0).Get("LOGIDS"); got != "8:9" {
		t.Fatalf("LOGIDS = %q", got)
	}
	if out != "deleted 1\nnot found 9\n" {
		t.Fatalf("output = %q", out)
	}

	if _, err := run(t, srv, "", "delete", "abc"); err == nil {
		t.Fatal("expected error for non-numeric logid")
	}
}

func TestCLI_DecodeIsLocal(t *testing.T) {
	srv, forms := stubLogbook(t)
	out, err := run(t, srv, sampleADIF, "decode")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if forms.count() != 0 {
		t.Fatal("decode must not contact the service")
	}
	if lines := strings.Count(out, "\n"); lines != 2 {
		t.Fatalf("expected 2 records, got %q", out)
	}
}

func TestCLI_Encode(t *testing.T) {
	srv, _ := stubLogbook(t)
	out, err := run(t, srv, "", "encode",
		"--field", "call=W1AW", "--field", "station_callsign=K1ABC",
		"--field", "qso_date=20240115", "--field", "time_on=1430",
		"--field", "my_sig=POTA")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasPrefix(out, "<call:4>W1AW") || !strings.Contains(out, "<my_sig:4>POTA") || !strings.Contains(out, "<eor>") {
		t.Fatalf("output = %q", out)
	}

	if _, err := run(t, srv, "", "encode", "--field", "call=W1AW"); err == nil {
		t.Fatal("expected validation error for incomplete record")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("QRZLOG_TEST_ENDPOINT=http://127.0.0.1:9/api\nQRZLOG_TEST_KEPT=file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("QRZLOG_TEST_KEPT", "shell")
	t.Setenv("QRZLOG_TEST_ENDPOINT", "")
	_ = os.Unsetenv("QRZLOG_TEST_ENDPOINT")

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if got := os.Getenv("QRZLOG_TEST_ENDPOINT"); got != "http://127.0.0.1:9/api" {
		t.Fatalf("endpoint = %q", got)
	}
	if got := os.Getenv("QRZLOG_TEST_KEPT"); got != "shell" {
		t.Fatalf("existing variable overridden: %q", got)
	}
	if err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}
