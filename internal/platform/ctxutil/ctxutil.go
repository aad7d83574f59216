package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const requestDataKey contextKey = "forgetrace.requestData"

// RequestData carries the authenticated identity for a request. The tenant id
// here is the isolation boundary for every query; services still take it as an
// explicit parameter rather than digging it out of the context themselves.
type RequestData struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	rd, ok := ctx.Value(requestDataKey).(*RequestData)
	if !ok {
		return nil
	}
	return rd
}
