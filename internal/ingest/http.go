package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/AngelCh415/voyager-portal/internal/utils"
)

const (
	retryBase     = 100 * time.Millisecond
	retryAttempts = 3
)

// GetJSONWithRetry fetches url into dst, retrying transport errors and 5xx
// replies with exponential backoff. 4xx replies and malformed JSON fail
// immediately. dst is only written once a reply decodes.
func GetJSONWithRetry(ctx context.Context, c HTTPClient, url string, dst any) error {
	return getJSONWithBackoff(ctx, c, url, dst, utils.NewBackoff(retryBase, retryAttempts-1))
}

func getJSONWithBackoff(ctx context.Context, c HTTPClient, url string, dst any, b utils.Backoff) error {
	var (
		permanent error
		body      json.RawMessage
	)
	err := b.Do(ctx, func(i int) error {
		var raw json.RawMessage
		err := getJSON(ctx, c, url, &raw)
		var (
			se  *StatusError
			syn *json.SyntaxError
		)
		switch {
		case errors.As(err, &se) && se.Code < 500, errors.As(err, &syn):
			permanent = err
			return nil
		case err != nil:
			return err
		}
		body = raw
		return nil
	})
	if permanent != nil {
		return permanent
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}
