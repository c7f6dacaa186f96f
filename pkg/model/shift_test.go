package model

import "testing"

func TestShiftCode_CoversInterval(t *testing.T) {
	codes := DefaultShiftCodes()
	byCode := map[string]ShiftCode{}
	for _, c := range codes {
		byCode[c.Code] = c
	}

	if !byCode["1F"].CoversInterval(Opening) {
		t.Error("1F should cover Opening")
	}
	if !byCode["1F"].CoversInterval(LunchPeak) {
		t.Error("1F should cover LunchPeak")
	}
	if byCode["1F"].CoversInterval(Closing) {
		t.Error("1F should not cover Closing")
	}
	if byCode[OffCode].CoversInterval(LunchPeak) {
		t.Error("off-code should never cover an interval")
	}
}

func TestShiftCode_RestGapMinutes(t *testing.T) {
	codes := DefaultShiftCodes()
	byCode := map[string]ShiftCode{}
	for _, c := range codes {
		byCode[c.Code] = c
	}

	// 3F ends 23:00, 1F starts 06:30 next day -> 7.5h rest, below the 10h
	// minimum.
	gap := byCode["3F"].RestGapMinutes(byCode["1F"])
	if gap != 7*60+30 {
		t.Errorf("RestGapMinutes(3F->1F) = %d minutes, expected 450", gap)
	}

	// 3F to 2F (starts 11:00) gives 12h rest, which clears the bar.
	gap = byCode["3F"].RestGapMinutes(byCode["2F"])
	if gap < 10*60 {
		t.Errorf("RestGapMinutes(3F->2F) = %d minutes, expected >= 600", gap)
	}
}

func TestDay_Weekday(t *testing.T) {
	d := Day{Date: "2026-01-10"} // a Saturday
	if d.Weekday().String() != "Saturday" {
		t.Errorf("Weekday() = %v, expected Saturday", d.Weekday())
	}
}
