// Package post renders outbound notification messages for comment period
// milestones.
package post

import (
	"strings"
	"time"

	"github.com/regwatch/regwatch/internal/model"
	"github.com/regwatch/regwatch/internal/topics"
)

// maxLength is the Bluesky post budget in characters.
const maxLength = 300

func headline(m model.Milestone) string {
	switch m {
	case model.MilestoneReminder7:
		return "⏰ 7 days left to comment"
	case model.MilestoneReminder3:
		return "⏰ 3 days left to comment"
	case model.MilestoneLastDay:
		return "🚨 Last day to comment!"
	default:
		return "🚨 New comment period"
	}
}

// Format renders the notification text for one period and milestone. The
// title is truncated as needed to keep the whole message within the post
// budget; links and the deadline always survive intact.
func Format(p model.CommentPeriod, m model.Milestone) string {
	var tail strings.Builder
	tail.WriteString("\n\n")
	tail.WriteString(p.AgencyName)
	tail.WriteString("\nComments due ")
	tail.WriteString(FormatDate(p.CommentEndDate))
	tail.WriteString("\n\n")
	tail.WriteString(p.RegulationsURL)

	ids := topics.Categorize(p.Title, p.Abstract.String, p.AgencyID)
	if tags := topics.Hashtags(ids); len(tags) > 0 {
		tail.WriteString("\n\n")
		tail.WriteString(strings.Join(tags, " "))
	}

	head := headline(m) + "\n\n"
	budget := maxLength - len([]rune(head)) - len([]rune(tail.String()))

	return head + truncate(p.Title, budget) + tail.String()
}

// FormatDate renders a YYYY-MM-DD date for display ("January 2, 2006").
// Unparseable input passes through unchanged.
func FormatDate(date string) string {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("January 2, 2006")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return ""
	}
	return string(runes[:n-1]) + "…"
}
