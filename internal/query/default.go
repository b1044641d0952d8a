package query

import "context"

// defaultConstructor is the stock capability installed when nothing is
// injected. It constructs queries but has no knowledge base to answer
// them from, mirroring the behavior of an unconfigured application.
type defaultConstructor struct {
	maxResults int
}

// NewDefault returns the default query constructor.
func NewDefault() Constructor {
	return &defaultConstructor{maxResults: 5}
}

func (d *defaultConstructor) Construct(_ context.Context, req Request) (*Query, error) {
	q := &Query{
		Terms:  extractTerms(req.Question),
		Spirit: normalize(req.Spirit),
		Glass:  normalize(req.Glass),
		Limit:  req.Limit,
	}
	if q.Limit <= 0 || q.Limit > d.maxResults {
		q.Limit = d.maxResults
	}

	if len(q.Terms) == 0 && q.Spirit == "" && q.Glass == "" {
		return nil, ErrEmptyQuery
	}
	return q, nil
}

func (d *defaultConstructor) Answer(ctx context.Context, req Request) (*Answer, error) {
	q, err := d.Construct(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Answer{
		Query:   q,
		Matches: []Match{},
		Source:  SourceNone,
	}, nil
}
