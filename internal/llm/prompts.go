package llm

import (
	"strings"

	"clinicAgent/internal/reply"
)

// MaxPromptLinks - сколько видимых ссылок перечисляется в вопросе о навигации.
const MaxPromptLinks = 120

const navPrompt = "You are seeing a clinic homepage. Identify the ONE best clickable element from the " +
	"navigation bar that will lead to a page listing doctors/staff (e.g., 'Our Team', 'Providers', " +
	"'Meet the Doctors'). If the link is inside a dropdown menu, reply using the format 'Parent > Link' " +
	"(for example, 'About Us > Our Team'). Otherwise, reply with just the exact visible link text. " +
	"Ensure the text is accurate and visible on the image page."

// NavPrompt - вопрос о том, какая ссылка ведет к странице персонала.
// Перечисляет до max видимых текстов ссылок, чтобы ассистент выбирал из существующих.
func NavPrompt(links []string, max int) string {
	if max <= 0 {
		max = MaxPromptLinks
	}

	var b strings.Builder
	b.WriteString(navPrompt)

	seen := make(map[string]struct{}, len(links))
	n := 0
	for _, l := range links {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		key := strings.ToLower(l)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if n == 0 {
			b.WriteString("\n\nHere are the visible links on the page:\n")
		}
		b.WriteString("- ")
		b.WriteString(l)
		b.WriteString("\n")
		n++
		if n >= max {
			break
		}
	}
	return b.String()
}

var fieldRules = map[string]string{
	"Phone":   "- Phone: the clinic's phone number if visible (generally in the very top information bar); else leave empty.\n",
	"Names":   "- First, Last: the clinic OWNER's first and last names if visible; else use the first doctor's name.\n",
	"Doctors": "- Doctors: the NUMBER of DOCTORS listed on this page (exclude non-physician staff). This field must be a numeric count with no words.\n",
}

// StaffPrompt - вопрос по странице персонала в строгом CSV под раскладку layout.
func StaffPrompt(layout reply.Layout) string {
	var cols []string
	var rules strings.Builder

	kinds := layout.Kinds
	for i, k := range kinds {
		switch k {
		case reply.Phone:
			cols = append(cols, "Phone")
			rules.WriteString(fieldRules["Phone"])
		case reply.Count:
			cols = append(cols, "Doctors")
			rules.WriteString(fieldRules["Doctors"])
		default:
			// Текстовые поля идут парой: имя и фамилия.
			if i > 0 && kinds[i-1] == reply.Text {
				cols = append(cols, "Last")
				continue
			}
			cols = append(cols, "First")
			rules.WriteString(fieldRules["Names"])
		}
	}

	return "You are seeing the clinic's staff/providers page. Using ONLY what is visible in this screenshot, " +
		"return exactly ONE line in strict CSV format: " + strings.Join(cols, ", ") + "\n" +
		rules.String() +
		"Return only the CSV line, with no labels or extra words."
}
