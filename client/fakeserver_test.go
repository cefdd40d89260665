package client

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/qrzlog/qrzlog/client/internal/adif"
	"github.com/qrzlog/qrzlog/client/internal/types"
)

const (
	testKey       = "ABCD-1234-EFGH-5678"
	testUserAgent = "qrzlog-test/1.0 (K1ABC)"
)

// fakeLogbook is an in-memory QRZ logbook speaking the form/envelope wire
// format. Logids increase monotonically and are never reused.
type fakeLogbook struct {
	t *testing.T

	mu        sync.Mutex
	nextID    int64
	records   map[int64]types.QsoRecord
	fetches   int
	options   []string
	agents    []string
	failWith  int // non-zero: reply with this HTTP status
	requestID []string
}

func newFakeLogbook(t *testing.T) (*fakeLogbook, *httptest.Server) {
	t.Helper()
	fl := &fakeLogbook{t: t, nextID: 1000, records: map[int64]types.QsoRecord{}}
	srv := httptest.NewServer(http.HandlerFunc(fl.serve))
	t.Cleanup(srv.Close)
	return fl, srv
}

// seed stores n records directly and returns their logids in order.
func (fl *fakeLogbook) seed(n int) []int64 {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		rec, err := NewRecordBuilder().
			Call(fmt.Sprintf("W%dAW", i)).
			StationCallsign("K1ABC").
			QSODate(Date(2024, 3, 1+i%28)).
			TimeOn(TimeOfDay(i%24, i%60, 0)).
			Band("20m").
			Mode("CW").
			Build()
		if err != nil {
			fl.t.Fatalf("seed build: %v", err)
		}
		fl.nextID += 3
		fl.records[fl.nextID] = rec
		ids = append(ids, fl.nextID)
	}
	return ids
}

func (fl *fakeLogbook) fetchCalls() int {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.fetches
}

func (fl *fakeLogbook) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.agents = append(fl.agents, r.UserAgent())
	fl.requestID = append(fl.requestID, r.Header.Get("X-Request-ID"))

	if fl.failWith != 0 {
		w.WriteHeader(fl.failWith)
		return
	}
	if r.PostForm.Get("KEY") != testKey {
		fmt.Fprint(w, "RESULT=AUTH")
		return
	}

	var body string
	switch r.PostForm.Get("ACTION") {
	case "INSERT":
		body = fl.insert(r.PostForm)
	case "FETCH":
		body = fl.fetch(r.PostForm.Get("OPTION"))
	case "DELETE":
		body = fl.remove(r.PostForm.Get("LOGIDS"))
	case "STATUS":
		data := "CALLSIGN=K1ABC&COUNT=" + strconv.Itoa(len(fl.records))
		body = "RESULT=OK&DATA=" + wireEscape(data)
	default:
		body = "RESULT=FAIL&REASON=" + wireEscape("invalid action")
	}
	fmt.Fprint(w, body)
}

func (fl *fakeLogbook) insert(form url.Values) string {
	recs, err := adif.DecodeString(form.Get("ADIF"))
	if err != nil || len(recs) != 1 {
		return "RESULT=FAIL&REASON=" + wireEscape("invalid adif")
	}
	rec := recs[0]
	for id, existing := range fl.records {
		if !sameQSO(existing, rec) {
			continue
		}
		if form.Get("OPTION") != "REPLACE" {
			return "RESULT=FAIL&REASON=" + wireEscape("Unable to add QSO to database: duplicate")
		}
		fl.records[id] = rec
		return fmt.Sprintf("RESULT=REPLACE&LOGID=%d&COUNT=1", id)
	}
	fl.nextID++
	fl.records[fl.nextID] = rec
	return fmt.Sprintf("RESULT=OK&LOGID=%d&COUNT=1", fl.nextID)
}

func sameQSO(a, b types.QsoRecord) bool {
	ab, _ := a.Band()
	bb, _ := b.Band()
	return a.Call() == b.Call() && a.QSODate().Equal(b.QSODate()) && a.TimeOn().Equal(b.TimeOn()) && ab == bb
}

func (fl *fakeLogbook) fetch(option string) string {
	fl.fetches++
	fl.options = append(fl.options, option)

	var (
		limit int
		after int64
		band  string
	)
	for _, opt := range strings.Split(option, ",") {
		k, v, _ := strings.Cut(opt, ":")
		switch strings.ToUpper(k) {
		case "MAX":
			limit, _ = strconv.Atoi(v)
		case "AFTERLOGID":
			after, _ = strconv.ParseInt(v, 10, 64)
		case "BAND":
			band = v
		}
	}

	ids := make([]int64, 0, len(fl.records))
	for id, rec := range fl.records {
		if id < after {
			continue
		}
		if b, _ := rec.Band(); band != "" && !strings.EqualFold(b, band) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	if len(ids) == 0 {
		return "RESULT=OK&COUNT=0"
	}

	recs := make([]types.QsoRecord, len(ids))
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		recs[i] = fl.records[id]
		strIDs[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("RESULT=OK&COUNT=%d&LOGIDS=%s&ADIF=%s",
		len(ids), strings.Join(strIDs, ","), wireEscape(adif.EncodeAll(recs)))
}

func (fl *fakeLogbook) remove(logIDs string) string {
	var missing []string
	deleted := 0
	for _, s := range strings.Split(logIDs, ":") {
		id, err := strconv.ParseInt(s, 10, 64)
		if _, ok := fl.records[id]; err != nil || !ok {
			missing = append(missing, s)
			continue
		}
		delete(fl.records, id)
		deleted++
	}
	if len(missing) > 0 {
		return fmt.Sprintf("RESULT=PARTIAL&COUNT=%d&LOGIDS=%s", deleted, strings.Join(missing, ","))
	}
	return fmt.Sprintf("RESULT=OK&COUNT=%d", deleted)
}

// wireEscape percent-encodes a value the way the service does.
func wireEscape(s string) string { return strings.ReplaceAll(url.QueryEscape(s), "+", "%20") }

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	c, err := New(testKey, testUserAgent, append([]Option{WithEndpoint(srv.URL), WithLogger(zerolog.Nop())}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}
