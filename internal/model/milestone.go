package model

import "fmt"

// Milestone identifies one of the four one-shot notification triggers for a
// comment period. The values double as the post_type stored in dispatches.
type Milestone string

const (
	MilestoneNew       Milestone = "new"
	MilestoneReminder7 Milestone = "reminder_7d"
	MilestoneReminder3 Milestone = "reminder_3d"
	MilestoneLastDay   Milestone = "last_day"
)

// Milestones lists all milestones in lifecycle order.
var Milestones = []Milestone{MilestoneNew, MilestoneReminder7, MilestoneReminder3, MilestoneLastDay}

// Valid reports whether m is a known milestone.
func (m Milestone) Valid() bool {
	switch m {
	case MilestoneNew, MilestoneReminder7, MilestoneReminder3, MilestoneLastDay:
		return true
	}
	return false
}

// DaysOut returns the reminder horizon in days before the deadline.
// MilestoneNew has no horizon and returns 0.
func (m Milestone) DaysOut() int {
	switch m {
	case MilestoneReminder7:
		return 7
	case MilestoneReminder3:
		return 3
	case MilestoneLastDay:
		return 1
	}
	return 0
}

// FlagColumn returns the comment_periods column holding this milestone's
// one-shot flag.
func (m Milestone) FlagColumn() string {
	switch m {
	case MilestoneNew:
		return "posted_new"
	case MilestoneReminder7:
		return "posted_7day_reminder"
	case MilestoneReminder3:
		return "posted_3day_reminder"
	case MilestoneLastDay:
		return "posted_last_day"
	}
	return ""
}

// MilestoneForDays maps a reminder horizon (7, 3 or 1 days) to its milestone.
func MilestoneForDays(days int) (Milestone, error) {
	switch days {
	case 7:
		return MilestoneReminder7, nil
	case 3:
		return MilestoneReminder3, nil
	case 1:
		return MilestoneLastDay, nil
	}
	return "", fmt.Errorf("no milestone for %d days (must be 7, 3 or 1)", days)
}
