package timeutil

import (
	"testing"
	"time"
)

func at(h, m int) time.Time {
	return time.Date(2025, 9, 18, h, m, 0, 0, time.UTC)
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"back to back", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"partial overlap", at(10, 0), at(11, 30), at(11, 0), at(12, 0), true},
		{"contained", at(10, 0), at(12, 0), at(10, 30), at(11, 0), true},
		{"disjoint", at(8, 0), at(9, 0), at(11, 0), at(12, 0), false},
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"touching before", at(9, 0), at(10, 0), at(10, 0), at(11, 0), false},
	}
	for _, tt := range tests {
		if got := Overlap(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
			t.Errorf("%s: Overlap = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestContains(t *testing.T) {
	start, end := at(10, 0), at(11, 0)
	if !Contains(start, end, at(10, 0)) {
		t.Error("start boundary should be contained")
	}
	if Contains(start, end, at(11, 0)) {
		t.Error("end boundary should not be contained")
	}
	if !Contains(start, end, at(10, 30)) {
		t.Error("interior instant should be contained")
	}
}

func TestIsPointWindow(t *testing.T) {
	if !IsPointWindow(at(15, 0), at(15, 5)) {
		t.Error("5 minute window should be a point")
	}
	if !IsPointWindow(at(15, 5), at(15, 0)) {
		t.Error("reversed boundaries should still be a point")
	}
	if IsPointWindow(at(15, 0), at(15, 6)) {
		t.Error("6 minute window should not be a point")
	}
	if IsPointWindow(time.Time{}, at(15, 0)) {
		t.Error("zero boundary should not be a point")
	}
}

func TestAbsDistance(t *testing.T) {
	if d := AbsDistance(at(10, 0), at(11, 0)); d != time.Hour {
		t.Fatalf("AbsDistance = %v", d)
	}
	if d := AbsDistance(at(11, 0), at(10, 0)); d != time.Hour {
		t.Fatalf("AbsDistance reversed = %v", d)
	}
}

func TestFormatStampZero(t *testing.T) {
	if got := FormatStamp(time.Time{}); got != "Unknown" {
		t.Fatalf("FormatStamp(zero) = %q", got)
	}
}
