package appointment

import (
	"testing"
	"time"
)

func TestFinishTimeResolution(t *testing.T) {
	startAt := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	explicit := startAt.Add(2 * time.Hour)
	dur := 45

	tests := []struct {
		name string
		appt Appointment
		want time.Time
	}{
		{
			name: "explicit finish wins over duration",
			appt: Appointment{StartAt: startAt, FinishAt: &explicit, DurationMinutes: &dur},
			want: explicit,
		},
		{
			name: "duration when no explicit finish",
			appt: Appointment{StartAt: startAt, DurationMinutes: &dur},
			want: startAt.Add(45 * time.Minute),
		},
		{
			name: "bare start falls back to zero length",
			appt: Appointment{StartAt: startAt},
			want: startAt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appt.FinishTime(); !got.Equal(tt.want) {
				t.Fatalf("FinishTime = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIntervalViewIsUTC(t *testing.T) {
	zone := time.FixedZone("UTC-3", -3*60*60)
	dur := 30
	appt := Appointment{
		StartAt:         time.Date(2024, 1, 10, 7, 0, 0, 0, zone),
		DurationMinutes: &dur,
	}

	iv := appt.Interval()
	if iv.Start.Location() != time.UTC || iv.Finish.Location() != time.UTC {
		t.Fatal("interval endpoints must be normalized to UTC")
	}
	if !iv.Start.Equal(time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("interval start = %s, want 10:00Z", iv.Start)
	}
	if iv.Duration() != 30*time.Minute {
		t.Fatalf("interval duration = %s, want 30m", iv.Duration())
	}
}
