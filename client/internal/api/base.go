package api

import (
	"context"
	"net/url"
	"time"

	"github.com/qrzlog/qrzlog/client/internal/envelope"
	clienterrors "github.com/qrzlog/qrzlog/client/internal/errors"
	"github.com/qrzlog/qrzlog/client/internal/types"
)

// Actions understood by the logbook service.
const (
	ActionInsert = "INSERT"
	ActionFetch  = "FETCH"
	ActionDelete = "DELETE"
	ActionStatus = "STATUS"
)

// Parameter names of the request contract.
const (
	ParamKey    = "KEY"
	ParamAction = "ACTION"
	ParamADIF   = "ADIF"
	ParamLogIDs = "LOGIDS"
	ParamOption = "OPTION"
)

func newParams(apiKey, action string) url.Values {
	p := url.Values{}
	p.Set(ParamKey, apiKey)
	p.Set(ParamAction, action)
	return p
}

// checkContext reports a context that already ended as an Http failure, the
// same kind the transport would have produced.
func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return clienterrors.HTTP(err)
	}
	return nil
}

// call submits params and classifies the response. Transport failures are
// surfaced as Http errors without reinterpretation.
func call(ctx context.Context, sub types.Submitter, params url.Values) (*envelope.Envelope, error) {
	action := params.Get(ParamAction)
	start := time.Now()

	body, err := sub.Submit(ctx, params)
	if err != nil {
		if clienterrors.KindOf(err) == 0 {
			err = clienterrors.HTTP(err)
		}
		observe(action, err, start)
		return nil, err
	}
	env, err := envelope.Decode(body)
	observe(action, err, start)
	if err != nil {
		return nil, err
	}
	return env, nil
}
