package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"StockMind/internal/domain"
	"StockMind/internal/metrics"
	"StockMind/internal/ports"
)

// deliveryGrace bounds a digest send that starts after the run budget is spent.
const deliveryGrace = 30 * time.Second

// TagRunner processes a single tag.
type TagRunner interface {
	Process(ctx context.Context, tag domain.TagWork) (*domain.Assessment, *domain.RunError)
}

// UserResult is the outcome of processing one user.
type UserResult struct {
	Skipped   bool
	Created   int
	Delivered bool
	Errors    []domain.RunError
}

// UserProcessor drives tags for one user and sends the digest.
type UserProcessor struct {
	tags       TagRunner
	dispatcher ports.DigestDispatcher
	logger     *slog.Logger
}

// NewUserProcessor constructs the per-user stage.
func NewUserProcessor(tags TagRunner, dispatcher ports.DigestDispatcher, logger *slog.Logger) *UserProcessor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &UserProcessor{tags: tags, dispatcher: dispatcher, logger: logger}
}

// Process walks the user's tags in order. Users without an address or tags
// are skipped without touching the dispatcher.
func (p *UserProcessor) Process(ctx context.Context, user domain.UserWork) UserResult {
	email := strings.TrimSpace(user.Email)
	if email == "" || len(user.Tags) == 0 {
		p.logger.Debug("user skipped", "user_id", user.ID, "tags", len(user.Tags))
		return UserResult{Skipped: true}
	}

	p.logger.Info("process user", "email", email, "tags", len(user.Tags))

	var (
		res   UserResult
		items = make([]domain.DigestItem, 0, len(user.Tags))
	)
	for i, tag := range user.Tags {
		if ctx.Err() != nil {
			res.Errors = append(res.Errors, domain.RunError{
				Scope:  UserScope(email),
				Detail: fmt.Sprintf("run budget exhausted: %d of %d tags not attempted", len(user.Tags)-i, len(user.Tags)),
			})
			break
		}

		assessment, runErr := p.tags.Process(ctx, tag)
		if runErr != nil {
			res.Errors = append(res.Errors, *runErr)
			continue
		}
		res.Created++
		items = append(items, domain.DigestItem{
			Subject:   tag.Name,
			Points:    assessment.Points,
			Sentiment: assessment.Sentiment,
			Summary:   assessment.Summary,
		})
	}

	if len(items) == 0 {
		return res
	}
	if p.dispatcher == nil {
		p.logger.Warn("no digest dispatcher configured", "email", email)
		return res
	}

	sendCtx := ctx
	if ctx.Err() != nil {
		// Assessments are already stored; still try to deliver them.
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), deliveryGrace)
		defer cancel()
	}

	if err := p.dispatcher.Dispatch(sendCtx, email, items); err != nil {
		metrics.DigestsTotal.WithLabelValues("failed").Inc()
		p.logger.Warn("digest not delivered", "email", email, "error", err)
		res.Errors = append(res.Errors, domain.RunError{Scope: UserScope(email), Detail: err.Error()})
		return res
	}

	res.Delivered = true
	metrics.DigestsTotal.WithLabelValues("sent").Inc()
	p.logger.Info("digest delivered", "email", email, "items", len(items))
	return res
}
