package appointment

import (
	"math/rand"
	"testing"
	"time"
)

func mins(base time.Time, m int) time.Time {
	return base.Add(time.Duration(m) * time.Minute)
}

func TestIntervalOverlaps(t *testing.T) {
	base := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		existing  Interval
		candidate Interval
		want      bool
	}{
		{
			name:      "existing covers candidate",
			existing:  NewInterval(mins(base, 0), mins(base, 60)),
			candidate: NewInterval(mins(base, 15), mins(base, 45)),
			want:      true,
		},
		{
			name:      "identical intervals",
			existing:  NewInterval(mins(base, 0), mins(base, 30)),
			candidate: NewInterval(mins(base, 0), mins(base, 30)),
			want:      true,
		},
		{
			name:      "existing finish inside candidate",
			existing:  NewInterval(mins(base, -15), mins(base, 15)),
			candidate: NewInterval(mins(base, 0), mins(base, 30)),
			want:      true,
		},
		{
			name:      "existing start inside candidate",
			existing:  NewInterval(mins(base, 15), mins(base, 45)),
			candidate: NewInterval(mins(base, 0), mins(base, 30)),
			want:      true,
		},
		{
			name:      "existing inside candidate",
			existing:  NewInterval(mins(base, 10), mins(base, 20)),
			candidate: NewInterval(mins(base, 0), mins(base, 30)),
			want:      true,
		},
		{
			name:      "existing strictly before",
			existing:  NewInterval(mins(base, -60), mins(base, -30)),
			candidate: NewInterval(mins(base, 0), mins(base, 30)),
			want:      false,
		},
		{
			name:      "existing strictly after",
			existing:  NewInterval(mins(base, 60), mins(base, 90)),
			candidate: NewInterval(mins(base, 0), mins(base, 30)),
			want:      false,
		},
		{
			name:      "existing finishes exactly at candidate start",
			existing:  NewInterval(mins(base, -30), mins(base, 0)),
			candidate: NewInterval(mins(base, 0), mins(base, 30)),
			want:      false,
		},
		{
			name:      "existing starts exactly at candidate finish",
			existing:  NewInterval(mins(base, 30), mins(base, 60)),
			candidate: NewInterval(mins(base, 0), mins(base, 30)),
			want:      false,
		},
		{
			name:      "zero-length candidate inside existing",
			existing:  NewInterval(mins(base, 0), mins(base, 60)),
			candidate: NewInterval(mins(base, 30), mins(base, 30)),
			want:      true,
		},
		{
			name:      "zero-length existing at candidate start",
			existing:  NewInterval(mins(base, 0), mins(base, 0)),
			candidate: NewInterval(mins(base, 0), mins(base, 30)),
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.existing.Overlaps(tt.candidate); got != tt.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v", tt.existing, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestIntervalOverlapsNormalizesTimezones(t *testing.T) {
	// 10:00 UTC expressed in UTC+2; same wall-clock instant, different zone.
	offset := time.FixedZone("UTC+2", 2*60*60)
	existing := NewInterval(
		time.Date(2024, 1, 10, 12, 0, 0, 0, offset),
		time.Date(2024, 1, 10, 12, 30, 0, 0, offset),
	)
	candidate := NewInterval(
		time.Date(2024, 1, 10, 10, 15, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 10, 45, 0, 0, time.UTC),
	)

	if !existing.Overlaps(candidate) {
		t.Fatal("intervals at the same instant in different zones must overlap")
	}
}

// Randomized check against the straightforward half-open reference predicate,
// restricted to non-degenerate intervals where the two formulations agree.
func TestIntervalOverlapsProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5000; i++ {
		s1 := rng.Intn(500)
		f1 := s1 + 1 + rng.Intn(120)
		s2 := rng.Intn(500)
		f2 := s2 + 1 + rng.Intn(120)

		existing := NewInterval(mins(base, s1), mins(base, f1))
		candidate := NewInterval(mins(base, s2), mins(base, f2))

		want := s1 < f2 && s2 < f1
		if got := existing.Overlaps(candidate); got != want {
			t.Fatalf("case %d: Overlaps([%d,%d), [%d,%d)) = %v, want %v", i, s1, f1, s2, f2, got, want)
		}

		// Overlap is symmetric for non-degenerate intervals.
		if got := candidate.Overlaps(existing); got != want {
			t.Fatalf("case %d: symmetry violated for [%d,%d) vs [%d,%d)", i, s1, f1, s2, f2)
		}
	}
}

func TestIntervalDuration(t *testing.T) {
	base := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)

	if got := NewInterval(base, mins(base, 45)).Duration(); got != 45*time.Minute {
		t.Fatalf("Duration = %s, want 45m", got)
	}
	if got := NewInterval(mins(base, 45), base).Duration(); got != 0 {
		t.Fatalf("reversed interval Duration = %s, want 0", got)
	}
}
