package requestdata

import "context"

var requestDataKey = struct{}{}

// RequestData carries the verified identity for one request. OwnerID is the
// opaque user identifier supplied by the identity layer; nothing below the
// middleware ever authenticates.
type RequestData struct {
	TokenString string
	OwnerID     string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey).(*RequestData); ok {
		return rd
	}
	return nil
}
