package platform

import (
	"context"
	"fmt"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/fusion"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/logger"
)

type notificationRequest struct {
	RecipientID string            `json:"recipientId"`
	From        string            `json:"from,omitempty"`
	Subject     string            `json:"subject"`
	Body        string            `json:"body"`
	ReplyTo     string            `json:"replyTo,omitempty"`
	Context     map[string]string `json:"context,omitempty"`
}

// NotifyReviewers emails every reviewer a link to the review form. One
// failing recipient does not stop the rest; the first error is returned.
func (c *Client) NotifyReviewers(ctx context.Context, sender *fusion.User, reviewers []fusion.User, formURL string) error {
	var firstErr error
	for _, reviewer := range reviewers {
		req := notificationRequest{
			RecipientID: reviewer.ID,
			Subject:     "Identity merge request review",
			Body: fmt.Sprintf(
				"A new identity merge request requires your review. Open the form to decide: %s",
				formURL,
			),
			Context: map[string]string{"formUrl": formURL},
		}
		if sender != nil {
			req.From = sender.Email
			req.ReplyTo = sender.Email
		}

		if err := c.post(ctx, "/v3/send-notification", req, nil); err != nil {
			logger.Warn().
				Err(err).
				Str("reviewer", reviewer.Name).
				Msg("failed to notify reviewer")
			if firstErr == nil {
				firstErr = fmt.Errorf("notify reviewer %s: %w", reviewer.Name, err)
			}
		}
	}
	return firstErr
}
