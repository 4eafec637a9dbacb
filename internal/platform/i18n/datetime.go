package i18n

import (
	"fmt"
	"time"
)

var monthNames = map[string][12]string{
	"en": {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	"de": {"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sep.", "Okt.", "Nov.", "Dez."},
}

var weekdayNames = map[string][7]string{
	"en": {"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
	"de": {"So.", "Mo.", "Di.", "Mi.", "Do.", "Fr.", "Sa."},
}

// FormatDate renders a short localized date such as "Sat, Nov 14 2026" or
// "Sa., 14. Nov. 2026".
func FormatDate(lang string, t time.Time) string {
	lang = NormalizeCode(lang)
	month := monthNames[lang][t.Month()-1]
	weekday := weekdayNames[lang][t.Weekday()]
	if lang == "de" {
		return fmt.Sprintf("%s, %d. %s %d", weekday, t.Day(), month, t.Year())
	}
	return fmt.Sprintf("%s, %s %d %d", weekday, month, t.Day(), t.Year())
}

// FormatTime renders a 24-hour clock time; German appends "Uhr".
func FormatTime(lang string, t time.Time) string {
	if NormalizeCode(lang) == "de" {
		return t.Format("15:04") + " Uhr"
	}
	return t.Format("15:04")
}

// FormatDateTime joins FormatDate and FormatTime.
func FormatDateTime(lang string, t time.Time) string {
	return FormatDate(lang, t) + ", " + FormatTime(lang, t)
}

// MonthName returns the localized month label used by month filters.
func MonthName(lang string, t time.Time) string {
	lang = NormalizeCode(lang)
	full := map[string][12]string{
		"en": {"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
		"de": {"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
	}
	return fmt.Sprintf("%s %d", full[lang][t.Month()-1], t.Year())
}
