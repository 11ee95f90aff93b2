package updater

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeUntilNextUpdate(t *testing.T) {
	t.Parallel()

	at := func(year int, month time.Month, day, hour, minute, sec int) time.Time {
		return time.Date(year, month, day, hour, minute, sec, 0, time.UTC)
	}

	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{
			name: "weekday afternoon waits for the next hour",
			now:  at(2026, time.March, 11, 14, 32, 0), // Wednesday
			want: 28 * time.Minute,
		},
		{
			name: "weekday top of the hour waits a full hour",
			now:  at(2026, time.March, 11, 9, 0, 0),
			want: time.Hour,
		},
		{
			name: "weekday 23h waits for midnight",
			now:  at(2026, time.March, 11, 23, 30, 0),
			want: 30 * time.Minute,
		},
		{
			name: "saturday morning waits for noon",
			now:  at(2026, time.March, 14, 9, 0, 0), // Saturday
			want: 3 * time.Hour,
		},
		{
			name: "saturday afternoon waits for midnight",
			now:  at(2026, time.March, 14, 15, 0, 0),
			want: 9 * time.Hour,
		},
		{
			name: "saturday noon exactly counts as afternoon",
			now:  at(2026, time.March, 14, 12, 0, 0),
			want: 12 * time.Hour,
		},
		{
			name: "sunday just before noon",
			now:  at(2026, time.March, 15, 11, 59, 59),
			want: time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, TimeUntilNextUpdate(tt.now))
		})
	}
}

func TestTimeUntilNextUpdateHonorsLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("site", -5*3600)
	// Wednesday 14:32 site time.
	now := time.Date(2026, time.March, 11, 14, 32, 0, 0, loc)
	require.Equal(t, 28*time.Minute, TimeUntilNextUpdate(now))
}
