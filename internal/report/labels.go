package report

import (
	"fmt"
	"sort"
	"strings"
)

// Supported locales.
const (
	LocaleEnglish = "en"
	LocaleRussian = "ru"
)

// Labels holds every user-visible string of a report in one language.
type Labels struct {
	Locale      string
	SheetName   string
	TitlePrefix string
	Header      [Columns]string

	StatusAvailable string
	StatusBusy      string
	StatusError     string

	Totals    string
	Checked   string
	Available string
	Busy      string
	Errors    string

	// TimeLayout renders the window instants in the title row.
	TimeLayout string
}

var labelSets = map[string]Labels{
	LocaleEnglish: {
		Locale:          LocaleEnglish,
		SheetName:       "Results",
		TitlePrefix:     "Availability check",
		Header:          [Columns]string{"STATUS", "USER", "NOTE"},
		StatusAvailable: "✅ Available",
		StatusBusy:      "❌ Busy",
		StatusError:     "⚠️ Error",
		Totals:          "TOTALS",
		Checked:         "Checked",
		Available:       "Available",
		Busy:            "Busy",
		Errors:          "Errors",
		TimeLayout:      "1/2/2006, 3:04:05 PM",
	},
	LocaleRussian: {
		Locale:          LocaleRussian,
		SheetName:       "Результаты",
		TitlePrefix:     "Поиск доступности",
		Header:          [Columns]string{"СТАТУС", "ПОЛЬЗОВАТЕЛЬ", "ПРИМЕЧАНИЕ"},
		StatusAvailable: "✅ Свободен",
		StatusBusy:      "❌ Занят",
		StatusError:     "⚠️ Ошибка",
		Totals:          "ИТОГИ",
		Checked:         "Всего проверено",
		Available:       "Свободны",
		Busy:            "Заняты",
		Errors:          "Ошибок",
		TimeLayout:      "02.01.2006, 15:04:05",
	},
}

// LabelsFor returns the label set for a locale. An empty locale means English.
func LabelsFor(locale string) (Labels, error) {
	if locale == "" {
		locale = LocaleEnglish
	}
	l, ok := labelSets[strings.ToLower(locale)]
	if !ok {
		return Labels{}, fmt.Errorf("unsupported locale %q (supported: %s)", locale, strings.Join(SupportedLocales(), ", "))
	}
	return l, nil
}

// SupportedLocales lists the known locales in sorted order.
func SupportedLocales() []string {
	locales := make([]string, 0, len(labelSets))
	for k := range labelSets {
		locales = append(locales, k)
	}
	sort.Strings(locales)
	return locales
}
