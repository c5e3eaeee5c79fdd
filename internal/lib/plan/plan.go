// Package plan разбирает полуструктурированный текст плана питания или тренировок
// в карточки по дням. Нераспознанный текст возвращается как есть для отображения.
package plan

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DayCard карточка одного дня плана.
type DayCard struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// Plan результат разбора. Если Days пуст, Fallback содержит исходный текст.
type Plan struct {
	Days     []DayCard `json:"days"`
	Fallback string    `json:"fallback,omitempty"`
}

var numberedDay = regexp.MustCompile(`(?i)^(day|день)\s*(\d{1,3})\s*(?:[:\-–—.)]\s*(.*))?$`)

var bullet = regexp.MustCompile(`^(?:[-*•·]+|\d{1,2}[.)])\s*`)

// weekdays ключи в нижнем регистре, длинные формы раньше сокращений.
var weekdays = []struct {
	key   string
	title string
}{
	{"monday", "Monday"}, {"tuesday", "Tuesday"}, {"wednesday", "Wednesday"},
	{"thursday", "Thursday"}, {"friday", "Friday"}, {"saturday", "Saturday"}, {"sunday", "Sunday"},
	{"понедельник", "Понедельник"}, {"вторник", "Вторник"}, {"среда", "Среда"},
	{"четверг", "Четверг"}, {"пятница", "Пятница"}, {"суббота", "Суббота"}, {"воскресенье", "Воскресенье"},
	{"mon", "Monday"}, {"tue", "Tuesday"}, {"wed", "Wednesday"}, {"thu", "Thursday"},
	{"fri", "Friday"}, {"sat", "Saturday"}, {"sun", "Sunday"},
	{"пн", "Понедельник"}, {"вт", "Вторник"}, {"ср", "Среда"}, {"чт", "Четверг"},
	{"пт", "Пятница"}, {"сб", "Суббота"}, {"вс", "Воскресенье"},
}

// Parse разбирает текст плана. Никогда не возвращает ошибку: всё, что не удалось
// разложить по дням, уходит в Fallback.
func Parse(text string) Plan {
	var (
		cards   []DayCard
		current *DayCard
	)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if title, rest, ok := matchHeader(line); ok {
			cards = append(cards, DayCard{Title: title, Items: []string{}})
			current = &cards[len(cards)-1]
			current.Items = append(current.Items, splitItems(rest)...)
			continue
		}

		if current == nil {
			continue
		}
		current.Items = append(current.Items, splitItems(bullet.ReplaceAllString(line, ""))...)
	}

	if len(cards) == 0 {
		return Plan{Days: []DayCard{}, Fallback: strings.TrimSpace(text)}
	}
	return Plan{Days: cards}
}

func matchHeader(line string) (title, rest string, ok bool) {
	line = bullet.ReplaceAllString(line, "")

	if m := numberedDay.FindStringSubmatch(line); m != nil {
		word := "Day"
		if strings.EqualFold(m[1], "день") {
			word = "День"
		}
		return word + " " + m[2], m[3], true
	}

	lower := strings.ToLower(line)
	for _, wd := range weekdays {
		if !strings.HasPrefix(lower, wd.key) {
			continue
		}
		tail := strings.TrimLeft(line[len(wd.key):], " \t")
		if tail == "" {
			return wd.title, "", true
		}
		r, size := utf8.DecodeRuneInString(tail)
		if unicode.IsLetter(r) || !isDelimiter(r) {
			continue
		}
		return wd.title, strings.TrimSpace(tail[size:]), true
	}
	return "", "", false
}

func isDelimiter(r rune) bool {
	switch r {
	case ':', '-', '–', '—', '.', ')':
		return true
	}
	return false
}

func splitItems(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' })
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}
