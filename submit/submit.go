package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"itinera/log"
	"itinera/route"
)

var (
	ErrSubmissionFailed = errors.New("submission failed")
	ErrBusy             = errors.New("a submission is already in progress")
)

type Resolver interface {
	Resolve(ctx context.Context, text string) (*route.Response, error)
}

// PartialError reports the sentences that failed when KeepPartial is set.
// The responses that did resolve were published.
type PartialError struct {
	Failed []int
	Errs   []error
}

func (e *PartialError) Error() string {
	ids := make([]string, len(e.Failed))
	for i, id := range e.Failed {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%d sentence(s) failed: %s", len(e.Failed), strings.Join(ids, ", "))
}

func (e *PartialError) Unwrap() []error { return e.Errs }

type Options struct {
	// Publish receives the complete ordered result list of a submission,
	// exactly once per successful submission.
	Publish func([]*route.Response)
	// KeepPartial publishes the sentences that resolved instead of
	// discarding the whole submission on the first failure.
	KeepPartial bool
	Normalizer  route.Normalizer
}

type Orchestrator struct {
	resolver   Resolver
	opts       Options
	processing atomic.Bool
}

func New(resolver Resolver, opts Options) *Orchestrator {
	return &Orchestrator{resolver: resolver, opts: opts}
}

// Processing reports whether a submission is in flight.
func (o *Orchestrator) Processing() bool {
	return o.processing.Load()
}

// Submit resolves every sentence of raw one at a time, in line order. On
// failure nothing is published unless KeepPartial is set.
func (o *Orchestrator) Submit(ctx context.Context, raw string) ([]*route.Response, error) {
	if !o.processing.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.processing.Store(false)

	id := uuid.NewString()
	reqs := Split(raw)
	log.SubmissionStart(id, len(reqs))

	results := make([]*route.Response, 0, len(reqs))
	summaries := make([]string, 0, len(reqs))
	var partial PartialError
	for _, req := range reqs {
		resp, err := o.resolve(ctx, req)
		if err != nil {
			if !o.opts.KeepPartial || ctx.Err() != nil {
				err = fmt.Errorf("%w: sentence %d: %v", ErrSubmissionFailed, req.ID, err)
				log.SubmissionEnd(id, len(results), err)
				return nil, err
			}
			partial.Failed = append(partial.Failed, req.ID)
			partial.Errs = append(partial.Errs, err)
			continue
		}

		n := o.opts.Normalizer.Normalize(resp)
		log.SentenceResolved(id, req.ID, n.Valid)
		summaries = append(summaries, n.Summary())
		results = append(results, resp)
	}

	if len(partial.Failed) > 0 && len(results) == 0 {
		err := fmt.Errorf("%w: %v", ErrSubmissionFailed, &partial)
		log.SubmissionEnd(id, 0, err)
		return nil, err
	}

	o.publish(results)
	for _, line := range summaries {
		log.RouteSummary(line)
	}
	if len(partial.Failed) > 0 {
		log.SubmissionEnd(id, len(results), &partial)
		return results, &partial
	}
	log.SubmissionEnd(id, len(results), nil)
	return results, nil
}

func (o *Orchestrator) resolve(ctx context.Context, req Request) (*route.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := o.resolver.Resolve(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	// the service is not trusted to echo the identifier
	resp.SentenceID = req.ID
	if resp.Text == "" {
		resp.Text = req.Text
	}
	return resp, nil
}

func (o *Orchestrator) publish(results []*route.Response) {
	if o.opts.Publish != nil {
		o.opts.Publish(results)
	}
}
