package mycontext

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// CtxTraceContext carries the cloud trace id of the current request (used by mylog).
type CtxTraceContext struct{}

// CtxAccessToken carries the Square access token that the refresh middleware
// attached on behalf of the current request.
type CtxAccessToken struct{}

func ContextFromHTTPRequest(r *http.Request) context.Context {
	var trace string

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	traceContext := r.Header.Get("X-Cloud-Trace-Context")
	traceParts := strings.Split(traceContext, "/")
	if len(traceParts) > 0 && len(traceParts[0]) > 0 {
		trace = fmt.Sprintf("projects/%s/traces/%s", projectID, traceParts[0])
	}

	return context.WithValue(r.Context(), CtxTraceContext{}, trace)
}

func WithAccessToken(c context.Context, accessToken string) context.Context {
	return context.WithValue(c, CtxAccessToken{}, accessToken)
}

// AccessToken returns the token attached by the refresh middleware, if any.
func AccessToken(c context.Context) (string, bool) {
	token, ok := c.Value(CtxAccessToken{}).(string)
	return token, ok && token != ""
}
