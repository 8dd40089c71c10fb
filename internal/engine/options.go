package engine

import "sqlguard/internal/domain"

// Option adjusts a single Execute call.
type Option func(*options)

type options struct {
	scope           *domain.DataScope
	page            *domain.PageRequest
	expectedVersion *int64
}

// WithScope restricts the statement to the rows the scope filter admits.
// It takes precedence over a DataScope found among the bound arguments.
func WithScope(scope domain.DataScope) Option {
	return func(o *options) { o.scope = &scope }
}

// WithPage bounds a SELECT to one page and, if requested, counts the total.
func WithPage(page domain.PageRequest) Option {
	return func(o *options) { o.page = &page }
}

// WithExpectedVersion makes an UPDATE succeed only if the row still carries
// version v.
func WithExpectedVersion(v int64) Option {
	return func(o *options) { o.expectedVersion = &v }
}

func collectOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// extractScope removes any DataScope values from args. The first one found
// becomes the scope unless an explicit WithScope was given.
func (o *options) extractScope(args []any) []any {
	var out []any
	for i, a := range args {
		var found *domain.DataScope
		switch v := a.(type) {
		case domain.DataScope:
			found = &v
		case *domain.DataScope:
			if v == nil {
				found = &domain.DataScope{}
			} else {
				found = v
			}
		default:
			if out != nil {
				out = append(out, a)
			}
			continue
		}
		if out == nil {
			out = append(make([]any, 0, len(args)), args[:i]...)
		}
		if o.scope == nil {
			o.scope = found
		}
	}
	if out == nil {
		return args
	}
	return out
}
