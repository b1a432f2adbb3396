package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devpulse/devpulse/internal/core"
)

func TestVelocityDailyKeepsEmptyBuckets(t *testing.T) {
	activity := sampleActivity()
	points := Velocity(activity, BucketDaily)

	require.Len(t, points, 10)
	require.Equal(t, "2026-07-01", points[0].Label)
	require.Equal(t, 2, points[0].Commits)
	require.Equal(t, 40, points[0].Additions)
	require.Equal(t, 0, points[1].Commits) // July 2nd has no commits
	require.Equal(t, 1, points[1].PRsCreated)
	require.Equal(t, 1, points[1].IssuesClosed)
	require.Equal(t, 1, points[2].Commits)
}

func TestVelocityWeeklyStartsMonday(t *testing.T) {
	// 2026-07-01 is a Wednesday; its week starts Monday 2026-06-29.
	start := bucketStart(time.Date(2026, 7, 1, 15, 0, 0, 0, time.UTC), BucketWeekly)
	require.Equal(t, time.Date(2026, 6, 29, 0, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Monday, start.Weekday())
}

func TestVelocityQuarterly(t *testing.T) {
	activity := &core.Activity{
		Period: core.Period{
			Start: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		},
		Commits: []core.Commit{
			{SHA: "a", CommittedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
			{SHA: "b", CommittedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
		},
	}

	points := Velocity(activity, BucketQuarterly)
	require.Len(t, points, 3)
	require.Equal(t, "2026-Q1", points[0].Label)
	require.Equal(t, 1, points[0].Commits)
	require.Equal(t, "2026-Q2", points[1].Label)
	require.Equal(t, 1, points[1].Commits)
	require.Equal(t, "2026-Q3", points[2].Label)
	require.Equal(t, 0, points[2].Commits)
}

func TestParseBucket(t *testing.T) {
	bucket, err := ParseBucket("Weekly")
	require.NoError(t, err)
	require.Equal(t, BucketWeekly, bucket)

	bucket, err = ParseBucket("")
	require.NoError(t, err)
	require.Equal(t, BucketWeekly, bucket)

	_, err = ParseBucket("hourly")
	require.Error(t, err)
}
