package reddit

import (
	"context"
	"fmt"

	"github.com/nkiryanov/trippit/internal/apperrors"
	"github.com/nkiryanov/trippit/internal/logger"
	"github.com/nkiryanov/trippit/internal/models"
)

type tokenAcquirer interface {
	AcquireToken(ctx context.Context) (string, error)
}

type submitter interface {
	Submit(ctx context.Context, accessToken string, p SubmitParams) (string, error)
}

// Posts itineraries to the subreddit on behalf of the service account
// Single attempt: retry policy belongs to the caller
type Publisher struct {
	subreddit string
	tokens    tokenAcquirer
	client    submitter
	logger    logger.Logger
}

func NewPublisher(subreddit string, tokens tokenAcquirer, client submitter, l logger.Logger) *Publisher {
	return &Publisher{
		subreddit: subreddit,
		tokens:    tokens,
		client:    client,
		logger:    l,
	}
}

// Publish rendered itinerary as self post
// Errors wrap apperrors.ErrAuthentication when no token could be acquired,
// *apperrors.PublishError when Reddit refused the post
func (p *Publisher) Publish(ctx context.Context, it models.Itinerary, title string) (models.PublishResult, error) {
	var result models.PublishResult

	token, err := p.tokens.AcquireToken(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: %w", apperrors.ErrAuthentication, err)
	}

	text, formatErr := Render(it)
	if formatErr != nil {
		p.logger.Warn("Itinerary rendered as summary", "error", formatErr)
	}

	url, err := p.client.Submit(ctx, token, SubmitParams{
		Subreddit: p.subreddit,
		Title:     title,
		Text:      text,
	})
	if err != nil {
		return result, fmt.Errorf("error while submitting post. Err: %w", err)
	}

	if url == "" {
		// Reddit accepted the post without telling where it is; point to the subreddit
		p.logger.Warn("Reddit response has no post url, using subreddit url", "subreddit", p.subreddit)
		return models.PublishResult{PostURL: p.SubredditURL(), Synthesized: true}, nil
	}

	return models.PublishResult{PostURL: url}, nil
}

func (p *Publisher) SubredditURL() string {
	return fmt.Sprintf("https://www.reddit.com/r/%s", p.subreddit)
}
