package stats

import (
	"fmt"
	"time"

	"github.com/devpulse/devpulse/internal/core"
)

// Velocity builds the bucketed time series across the whole period. Empty
// buckets are kept so the series has no gaps.
func Velocity(activity *core.Activity, bucket Bucket) []VelocityPoint {
	if bucket == "" {
		bucket = BucketDaily
	}

	start := bucketStart(activity.Period.Start.UTC(), bucket)
	end := activity.Period.End.UTC()
	if end.Before(start) {
		return nil
	}

	var points []VelocityPoint
	index := make(map[string]int)
	for t := start; !t.After(end); t = nextBucket(t, bucket) {
		label := bucketLabel(t, bucket)
		index[label] = len(points)
		points = append(points, VelocityPoint{Label: label, Start: t})
	}

	assign := func(at time.Time, fn func(*VelocityPoint)) {
		if i, ok := index[bucketLabel(bucketStart(at.UTC(), bucket), bucket)]; ok {
			fn(&points[i])
		}
	}

	for _, commit := range activity.Commits {
		c := commit
		assign(c.CommittedAt, func(p *VelocityPoint) {
			p.Commits++
			p.Additions += c.Additions
			p.Deletions += c.Deletions
		})
	}
	for _, pr := range activity.PullRequests {
		assign(pr.CreatedAt, func(p *VelocityPoint) { p.PRsCreated++ })
	}
	for _, issue := range activity.Issues {
		if issue.ClosedAt != nil {
			assign(*issue.ClosedAt, func(p *VelocityPoint) { p.IssuesClosed++ })
		}
	}
	return points
}

func bucketStart(t time.Time, bucket Bucket) time.Time {
	t = t.UTC()
	switch bucket {
	case BucketWeekly:
		day := t.Truncate(24 * time.Hour)
		weekday := int(day.Weekday())
		// Weeks start on Monday.
		offset := (weekday + 6) % 7
		return day.AddDate(0, 0, -offset)
	case BucketMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case BucketQuarterly:
		quarterMonth := ((int(t.Month())-1)/3)*3 + 1
		return time.Date(t.Year(), time.Month(quarterMonth), 1, 0, 0, 0, 0, time.UTC)
	default:
		return t.Truncate(24 * time.Hour)
	}
}

func nextBucket(t time.Time, bucket Bucket) time.Time {
	switch bucket {
	case BucketWeekly:
		return t.AddDate(0, 0, 7)
	case BucketMonthly:
		return t.AddDate(0, 1, 0)
	case BucketQuarterly:
		return t.AddDate(0, 3, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func bucketLabel(t time.Time, bucket Bucket) string {
	switch bucket {
	case BucketWeekly:
		year, week := t.ISOWeek()
		return isoWeekLabel(year, week)
	case BucketMonthly:
		return t.Format("2006-01")
	case BucketQuarterly:
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	default:
		return t.Format("2006-01-02")
	}
}

func isoWeekLabel(year, week int) string {
	return fmt.Sprintf("%d-W%02d", year, week)
}
