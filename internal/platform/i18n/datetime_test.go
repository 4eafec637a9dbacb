package i18n

import (
	"testing"
	"time"
)

func TestFormatDateTime(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 11, 14, 20, 0, 0, 0, time.UTC)
	tests := []struct {
		lang string
		want string
	}{
		{lang: "en", want: "Sat, Nov 14 2026, 20:00"},
		{lang: "de", want: "Sa., 14. Nov. 2026, 20:00 Uhr"},
		{lang: "fr", want: "Sat, Nov 14 2026, 20:00"},
	}
	for _, tc := range tests {
		if got := FormatDateTime(tc.lang, at); got != tc.want {
			t.Fatalf("FormatDateTime(%q) = %q, want %q", tc.lang, got, tc.want)
		}
	}
	if got := MonthName("de", at); got != "November 2026" {
		t.Fatalf("MonthName(de) = %q", got)
	}
	if got := MonthName("en", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)); got != "March 2026" {
		t.Fatalf("MonthName(en) = %q", got)
	}
}
