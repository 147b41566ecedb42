package testutil

import (
	"context"
	"net/http"

	"talentkyc/pkg/requestcontext"
)

// ActorHeader carries the caller identity on inbound requests.
const ActorHeader = "X-User-ID"

// WithActor sets the caller identity both as header and as request context,
// covering handlers mounted with or without the actor middleware.
func WithActor(req *http.Request, actor string) *http.Request {
	if actor == "" {
		return req
	}
	req.Header.Set(ActorHeader, actor)
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
