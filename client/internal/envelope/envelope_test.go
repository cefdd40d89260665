package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clienterrors "github.com/qrzlog/qrzlog/client/internal/errors"
)

func TestDecode_FailCarriesReasonVerbatim(t *testing.T) {
	t.Parallel()
	_, err := Decode("RESULT=FAIL&REASON=Invalid%20band")
	require.Error(t, err)
	assert.ErrorIs(t, err, clienterrors.ErrAPI)
	assert.Equal(t, "Invalid band", clienterrors.Reason(err))
}

func TestDecode_OKWithoutADIF(t *testing.T) {
	t.Parallel()
	env, err := Decode("RESULT=OK&COUNT=2&LOGIDS=10:11")
	require.NoError(t, err)

	recs, err := env.Records()
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, []int64{10, 11}, env.LogIDs)
	require.NotNil(t, env.Count)
	assert.Equal(t, 2, *env.Count)

	res, err := env.FetchResult()
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Empty(t, res.Records)
	assert.Equal(t, []int64{10, 11}, res.LogIDs)
}

func TestDecode_ADIFPayloadIsDecoded(t *testing.T) {
	t.Parallel()
	body := "RESULT=OK&COUNT=1&LOGIDS=42&ADIF=" +
		"%3Ccall%3A4%3EW1AW%3Cstation_callsign%3A5%3EK1ABC%3Cqso_date%3A8%3E20240115%3Ctime_on%3A4%3E1430%3Ccomment%3A3%3E5+9%3Ceor%3E"

	env, err := Decode(body)
	require.NoError(t, err)
	res, err := env.FetchResult()
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "W1AW", res.Records[0].Call())
	c, _ := res.Records[0].Comment()
	assert.Equal(t, "5+9", c)
	assert.Equal(t, []int64{42}, res.LogIDs)
}

func TestDecode_BadADIFIsParseError(t *testing.T) {
	t.Parallel()
	env, err := Decode("RESULT=OK&COUNT=1&LOGIDS=1&ADIF=%3Ccall%3A9%3EW1AW%3Ceor%3E")
	require.NoError(t, err)
	_, err = env.Records()
	assert.ErrorIs(t, err, clienterrors.ErrADIFParse)
}

func TestDecode_Auth(t *testing.T) {
	t.Parallel()
	cases := []string{
		"RESULT=AUTH",
		"RESULT=AUTH&REASON=insufficient%20privileges",
		"REASON=invalid%20api%20key",
	}
	for _, body := range cases {
		_, err := Decode(body)
		assert.ErrorIs(t, err, clienterrors.ErrAuth, body)
		assert.NotErrorIs(t, err, clienterrors.ErrAPI, body)
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"empty":           "",
		"whitespace":      " \n",
		"no equals":       "RESULT",
		"html":            "<html><body>502 Bad Gateway</body></html>",
		"bad escape":      "RESULT=OK&REASON=%zz",
		"unknown result":  "RESULT=MAYBE",
		"no result":       "COUNT=3",
		"fail with count": "RESULT=FAIL&COUNT=abc",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(body)
			require.Error(t, err)
			assert.ErrorIs(t, err, clienterrors.ErrAPI)
		})
	}
}

func TestDecode_MalformedReason(t *testing.T) {
	t.Parallel()
	_, err := Decode("not an envelope")
	assert.Equal(t, ReasonMalformed, clienterrors.Reason(err))
}

func TestDecode_FailWithoutReason(t *testing.T) {
	t.Parallel()
	_, err := Decode("RESULT=FAIL")
	assert.Equal(t, "unknown error", clienterrors.Reason(err))
}

func TestEnvelope_InsertResult(t *testing.T) {
	t.Parallel()
	env, err := Decode("RESULT=REPLACE&LOGID=130877825&COUNT=1")
	require.NoError(t, err)
	res := env.InsertResult()
	assert.Equal(t, int64(130877825), res.LogID)
	assert.Equal(t, 1, res.Count)
	assert.True(t, res.Replaced)
}

func TestEnvelope_DeleteResultPartial(t *testing.T) {
	t.Parallel()
	env, err := Decode("RESULT=PARTIAL&COUNT=1&LOGIDS=7,9")
	require.NoError(t, err)
	res := env.DeleteResult()
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, []int64{7, 9}, res.NotFound)
}

func TestEnvelope_StatusData(t *testing.T) {
	t.Parallel()
	env, err := Decode("RESULT=OK&DATA=BOOKID%3D123%26CALLSIGN%3DK1ABC%26OWNER%3DA%2520B")
	require.NoError(t, err)
	res := env.StatusResult()
	assert.Equal(t, map[string]string{
		"BOOKID":   "123",
		"CALLSIGN": "K1ABC",
		"OWNER":    "A B",
	}, res.Data)
}

func TestParse_KeysAreCaseInsensitive(t *testing.T) {
	t.Parallel()
	env, err := Parse("result=ok&logids=1:2:x:3&")
	require.NoError(t, err)
	assert.NoError(t, env.Err())
	assert.Equal(t, []int64{1, 2, 3}, env.LogIDs)
}
