package domain

import "context"

type principalKey struct{}

type resolutionErrKey struct{}

type requestIDKey struct{}

// WithPrincipal stores the acting principal in the context. A nil principal
// leaves the context unchanged.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	if p == nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the acting principal from the context.
// Contexts not derived from an inbound request never carry one.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// WithResolutionError records that principal resolution failed because the
// session store was unavailable. It lets security-sensitive callers tell
// "unauthenticated" apart from "could not check".
func WithResolutionError(ctx context.Context, err error) context.Context {
	if err == nil {
		return ctx
	}
	return context.WithValue(ctx, resolutionErrKey{}, err)
}

// ResolutionErrorFromContext returns the error recorded by WithResolutionError.
func ResolutionErrorFromContext(ctx context.Context) error {
	err, _ := ctx.Value(resolutionErrKey{}).(error)
	return err
}

// WithRequestID stores a request correlation ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request correlation ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
