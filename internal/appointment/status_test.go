package appointment

import (
	"testing"
	"time"
)

var statusNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func apptWith(status Status, startAt time.Time) *Appointment {
	return &Appointment{Status: status, StartAt: startAt}
}

func TestSoftStatusPredicates(t *testing.T) {
	future := statusNow.Add(time.Hour)
	past := statusNow.Add(-time.Hour)

	tests := []struct {
		name                          string
		appt                          *Appointment
		due, active, pending          bool
		confirmable, serveable, annul bool
	}{
		{
			name:        "reserved upcoming",
			appt:        apptWith(StatusReserved, future),
			due:         false,
			active:      true,
			pending:     true,
			confirmable: true,
			serveable:   false,
			annul:       true,
		},
		{
			name:        "reserved past start",
			appt:        apptWith(StatusReserved, past),
			due:         true,
			active:      true,
			pending:     false,
			confirmable: false,
			serveable:   true,
			annul:       true,
		},
		{
			name:        "confirmed upcoming",
			appt:        apptWith(StatusConfirmed, future),
			due:         false,
			active:      true,
			pending:     true,
			confirmable: false,
			serveable:   false,
			annul:       true,
		},
		{
			name:        "confirmed due",
			appt:        apptWith(StatusConfirmed, past),
			due:         true,
			active:      true,
			pending:     false,
			confirmable: false,
			serveable:   true,
			annul:       true,
		},
		{
			name:        "annulated",
			appt:        apptWith(StatusAnnulated, future),
			due:         false,
			active:      false,
			pending:     false,
			confirmable: false,
			serveable:   false,
			annul:       false,
		},
		{
			name:        "served",
			appt:        apptWith(StatusServed, past),
			due:         true,
			active:      false,
			pending:     false,
			confirmable: false,
			serveable:   false,
			annul:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appt.IsDue(statusNow); got != tt.due {
				t.Errorf("IsDue = %v, want %v", got, tt.due)
			}
			if got := tt.appt.IsFuture(statusNow); got == tt.due {
				t.Errorf("IsFuture must be the negation of IsDue")
			}
			if got := tt.appt.IsActive(); got != tt.active {
				t.Errorf("IsActive = %v, want %v", got, tt.active)
			}
			if got := tt.appt.IsPending(statusNow); got != tt.pending {
				t.Errorf("IsPending = %v, want %v", got, tt.pending)
			}
			if got := tt.appt.IsConfirmable(statusNow); got != tt.confirmable {
				t.Errorf("IsConfirmable = %v, want %v", got, tt.confirmable)
			}
			if got := tt.appt.IsServeable(statusNow); got != tt.serveable {
				t.Errorf("IsServeable = %v, want %v", got, tt.serveable)
			}
			if got := tt.appt.IsAnnulable(); got != tt.annul {
				t.Errorf("IsAnnulable = %v, want %v", got, tt.annul)
			}
		})
	}
}

func TestIsDueAtExactStart(t *testing.T) {
	appt := apptWith(StatusReserved, statusNow)
	if !appt.IsDue(statusNow) {
		t.Fatal("an appointment starting exactly now is due")
	}
}

func TestCheckTransition(t *testing.T) {
	future := statusNow.Add(time.Hour)
	past := statusNow.Add(-time.Hour)

	tests := []struct {
		name    string
		appt    *Appointment
		action  Action
		wantTo  Status
		wantOK  bool
	}{
		{"reserve unset", &Appointment{StartAt: future}, ActionReserve, StatusReserved, true},
		{"reserve already reserved", apptWith(StatusReserved, future), ActionReserve, StatusReserved, false},
		{"confirm future reserved", apptWith(StatusReserved, future), ActionConfirm, StatusConfirmed, true},
		{"confirm past reserved", apptWith(StatusReserved, past), ActionConfirm, StatusReserved, false},
		{"confirm confirmed", apptWith(StatusConfirmed, future), ActionConfirm, StatusConfirmed, false},
		{"confirm annulated", apptWith(StatusAnnulated, future), ActionConfirm, StatusAnnulated, false},
		{"serve due reserved", apptWith(StatusReserved, past), ActionServe, StatusServed, true},
		{"serve due confirmed", apptWith(StatusConfirmed, past), ActionServe, StatusServed, true},
		{"serve future reserved", apptWith(StatusReserved, future), ActionServe, StatusReserved, false},
		{"serve served", apptWith(StatusServed, past), ActionServe, StatusServed, false},
		{"annulate reserved", apptWith(StatusReserved, future), ActionAnnulate, StatusAnnulated, true},
		{"annulate confirmed", apptWith(StatusConfirmed, past), ActionAnnulate, StatusAnnulated, true},
		{"annulate annulated", apptWith(StatusAnnulated, future), ActionAnnulate, StatusAnnulated, false},
		{"annulate served", apptWith(StatusServed, past), ActionAnnulate, StatusServed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			to, ok := tt.appt.CheckTransition(tt.action, statusNow)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if to != tt.wantTo {
				t.Fatalf("to = %q, want %q", to, tt.wantTo)
			}
		})
	}
}

func TestNoTransitionRevertsToReserved(t *testing.T) {
	actions := []Action{ActionConfirm, ActionServe, ActionAnnulate}
	statuses := []Status{StatusConfirmed, StatusAnnulated, StatusServed}
	times := []time.Time{statusNow.Add(-time.Hour), statusNow.Add(time.Hour)}

	for _, status := range statuses {
		for _, action := range actions {
			for _, startAt := range times {
				appt := apptWith(status, startAt)
				if to, ok := appt.CheckTransition(action, statusNow); ok && to == StatusReserved {
					t.Fatalf("%s on %s reverted to reserved", action, status)
				}
			}
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   Status
		wantOK bool
	}{
		{"R", StatusReserved, true},
		{"reserved", StatusReserved, true},
		{"c", StatusConfirmed, true},
		{"Confirmed", StatusConfirmed, true},
		{"A", StatusAnnulated, true},
		{"served", StatusServed, true},
		{" S ", StatusServed, true},
		{"pending", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseStatus(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Fatalf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestStatusLabels(t *testing.T) {
	if StatusReserved.Label() != "reserved" ||
		StatusConfirmed.Label() != "confirmed" ||
		StatusAnnulated.Label() != "annulated" ||
		StatusServed.Label() != "served" {
		t.Fatal("status labels do not match their codes")
	}
	if Status("X").Label() != "unknown" {
		t.Fatal("unexpected label for unknown status")
	}
}
