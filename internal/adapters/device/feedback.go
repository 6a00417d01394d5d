package device

import (
	"context"
	"fmt"

	"github.com/okian/bullseye/internal/domain/zone"
)

// Wire tokens understood by the board firmware.
var feedbackTokens = map[zone.Feedback]string{
	zone.FeedbackBull: "LED:BULL",
	zone.FeedbackHigh: "LED:HIGH",
	zone.FeedbackMid:  "LED:MID",
	zone.FeedbackLow:  "LED:LOW",
}

// FeedbackToken returns the wire token for f.
func FeedbackToken(f zone.Feedback) (string, error) {
	tok, ok := feedbackTokens[f]
	if !ok {
		return "", fmt.Errorf("%w: unknown feedback %s", ErrWrite, f)
	}
	return tok, nil
}

// SendFeedback writes the token for f to the link.
func SendFeedback(ctx context.Context, l Link, f zone.Feedback) error {
	tok, err := FeedbackToken(f)
	if err != nil {
		return err
	}
	return l.Write(ctx, []byte(tok))
}
