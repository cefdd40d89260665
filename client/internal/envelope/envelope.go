// Package envelope parses the key=value response bodies returned by the
// logbook service and classifies them into results or typed errors.
package envelope

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/qrzlog/qrzlog/client/internal/adif"
	clienterrors "github.com/qrzlog/qrzlog/client/internal/errors"
	"github.com/qrzlog/qrzlog/client/internal/types"
)

// RESULT values sent by the service.
const (
	ResultOK      = "OK"
	ResultReplace = "REPLACE"
	ResultPartial = "PARTIAL"
	ResultFail    = "FAIL"
	ResultAuth    = "AUTH"
)

// ReasonMalformed is the Api reason for bodies that are not a recognizable
// key=value envelope.
const ReasonMalformed = "malformed response"

// Envelope is a parsed response body. Optional keys are nil when absent.
type Envelope struct {
	Result string
	Reason string
	Count  *int
	LogID  *int64
	LogIDs []int64
	ADIF   *string
	Data   map[string]string
	// Values holds every decoded pair keyed by uppercase name.
	Values map[string]string
}

// Parse splits body into decoded pairs. It does not classify RESULT; see Err.
func Parse(body string) (*Envelope, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, clienterrors.API(ReasonMalformed)
	}
	values := make(map[string]string)
	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, clienterrors.API(ReasonMalformed)
		}
		key, err := url.PathUnescape(k)
		if err != nil {
			return nil, clienterrors.API(ReasonMalformed)
		}
		val, err := url.PathUnescape(v)
		if err != nil {
			return nil, clienterrors.API(ReasonMalformed)
		}
		values[strings.ToUpper(strings.TrimSpace(key))] = val
	}
	if len(values) == 0 {
		return nil, clienterrors.API(ReasonMalformed)
	}

	env := &Envelope{
		Result: strings.ToUpper(strings.TrimSpace(values["RESULT"])),
		Reason: values["REASON"],
		Values: values,
	}
	if s, ok := values["COUNT"]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 0 {
			return nil, clienterrors.APIf("invalid COUNT %q", s)
		}
		env.Count = &n
	}
	if s, ok := values["LOGID"]; ok && strings.TrimSpace(s) != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, clienterrors.APIf("invalid LOGID %q", s)
		}
		env.LogID = &id
	}
	if s, ok := values["LOGIDS"]; ok {
		env.LogIDs = parseLogIDs(s)
	}
	if s, ok := values["ADIF"]; ok {
		env.ADIF = &s
	}
	if s, ok := values["DATA"]; ok {
		env.Data = parseData(s)
	}
	return env, nil
}

// Decode parses body and returns its classification error, if any.
func Decode(body string) (*Envelope, error) {
	env, err := Parse(body)
	if err != nil {
		return nil, err
	}
	if err := env.Err(); err != nil {
		return nil, err
	}
	return env, nil
}

// Err classifies the envelope. OK, REPLACE and PARTIAL are successes.
func (e *Envelope) Err() error {
	switch e.Result {
	case ResultOK, ResultReplace, ResultPartial:
		return nil
	case ResultFail:
		if e.Reason == "" {
			return clienterrors.API("unknown error")
		}
		return clienterrors.API(e.Reason)
	case ResultAuth:
		return clienterrors.Auth(e.Reason)
	case "":
		if authReason(e.Reason) {
			return clienterrors.Auth(e.Reason)
		}
	}
	return clienterrors.API(ReasonMalformed)
}

// Records decodes the embedded ADIF payload. An absent payload yields no
// records.
func (e *Envelope) Records() ([]types.QsoRecord, error) {
	if e.ADIF == nil {
		return nil, nil
	}
	return adif.DecodeString(*e.ADIF)
}

// InsertResult interprets a successful INSERT envelope.
func (e *Envelope) InsertResult() *types.InsertResult {
	res := &types.InsertResult{Replaced: e.Result == ResultReplace}
	if e.LogID != nil {
		res.LogID = *e.LogID
	} else if len(e.LogIDs) == 1 {
		res.LogID = e.LogIDs[0]
	}
	if e.Count != nil {
		res.Count = *e.Count
	}
	return res
}

// DeleteResult interprets a successful DELETE envelope. On PARTIAL the
// LOGIDS key lists the ids that were not found.
func (e *Envelope) DeleteResult() *types.DeleteResult {
	res := &types.DeleteResult{}
	if e.Count != nil {
		res.Deleted = *e.Count
	}
	if e.Result == ResultPartial {
		res.NotFound = e.LogIDs
	}
	return res
}

// FetchResult interprets a successful FETCH envelope.
func (e *Envelope) FetchResult() (*types.FetchResult, error) {
	recs, err := e.Records()
	if err != nil {
		return nil, err
	}
	res := &types.FetchResult{LogIDs: e.LogIDs, Records: recs}
	if e.Count != nil {
		res.Count = *e.Count
	} else {
		res.Count = len(recs)
	}
	return res, nil
}

// StatusResult interprets a successful STATUS envelope.
func (e *Envelope) StatusResult() *types.StatusResult {
	data := make(map[string]string, len(e.Data))
	for k, v := range e.Data {
		data[k] = v
	}
	return &types.StatusResult{Data: data}
}

// parseLogIDs accepts ':' or ',' separators and skips tokens that are not
// integers.
func parseLogIDs(s string) []int64 {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == ',' })
	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// parseData reads the nested key=value list carried by STATUS. The service
// encodes it a second time, so values are unescaped again when possible.
func parseData(s string) map[string]string {
	data := make(map[string]string)
	for _, pair := range strings.Split(s, "&") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			continue
		}
		if dv, err := url.PathUnescape(v); err == nil {
			v = dv
		}
		data[strings.ToUpper(k)] = v
	}
	return data
}

func authReason(reason string) bool {
	r := strings.ToLower(reason)
	for _, w := range []string{"auth", "api key", "invalid key", "privilege", "access"} {
		if strings.Contains(r, w) {
			return true
		}
	}
	return false
}
