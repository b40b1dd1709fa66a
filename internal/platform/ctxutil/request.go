package ctxutil

import "context"

type requestDataKey struct{}

// RequestData is the authenticated caller attached by the auth middleware.
// UserID is the opaque subject of the verified token.
type RequestData struct {
	TokenString string
	UserID      string
	Audience    []string
}

func (rd *RequestData) HasAudience(aud string) bool {
	if rd == nil {
		return false
	}
	for _, a := range rd.Audience {
		if a == aud {
			return true
		}
	}
	return false
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
