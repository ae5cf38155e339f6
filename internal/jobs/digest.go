package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/hpungsan/murmur/internal/db"
	"github.com/hpungsan/murmur/internal/insight"
	"github.com/hpungsan/murmur/internal/ops"
)

// PostDigest summarizes the stored feedback and posts it to the digest channel.
// Nothing is posted while the store is empty.
func (s *Scheduler) PostDigest(ctx context.Context) error {
	total, err := db.CountFeedback(ctx, s.opts.DB)
	if err != nil {
		return err
	}
	if total == 0 {
		s.logger.Info("digest skipped: no feedback")
		return nil
	}

	out, err := ops.Insights(ctx, s.opts.DB, s.opts.Generator)
	if err != nil {
		return err
	}

	channel := s.opts.Config.DigestChannelID
	_, ts, err := s.opts.Poster.PostMessageContext(ctx, channel,
		slack.MsgOptionText(out.Summary, false),
		slack.MsgOptionBlocks(DigestBlocks(out.Result, total, out.Source)...),
	)
	if err != nil {
		return fmt.Errorf("post digest: %w", err)
	}

	s.logger.Info("digest posted",
		zap.String("channel", channel),
		zap.String("ts", ts),
		zap.String("source", out.Source),
		zap.Int("clusters", len(out.Clusters)))
	return nil
}

// DigestBlocks renders an insight result as Slack Block Kit blocks:
// a header, the summary, then one section per cluster.
func DigestBlocks(r insight.Result, total int, source string) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType,
				fmt.Sprintf("Feedback digest (%d submissions)", total), false, false),
		),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, r.Summary, false, false),
			nil, nil,
		),
	}

	if len(r.Clusters) > 0 {
		blocks = append(blocks, slack.NewDividerBlock())
	}
	for _, c := range r.Clusters {
		var b strings.Builder
		fmt.Fprintf(&b, "*%s*", c.Title)
		for _, ex := range c.Examples {
			fmt.Fprintf(&b, "\n• %s", ex)
		}
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, b.String(), false, false),
			nil, nil,
		))
	}

	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, "source: "+source, false, false),
	))
	return blocks
}
