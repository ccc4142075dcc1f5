package nlu

import (
	"fmt"
	"strings"
)

// RenderQuestion phrases a clarification signal as a single user-facing
// question. Rendering is presentation only: callers that want different copy
// work from the reason code and data, never from this string.
func RenderQuestion(signal *ClarificationSignal) string {
	if signal == nil {
		return ""
	}
	data := signal.Data

	switch signal.Reason {
	case ReasonMissingDate:
		return "What day would you like to come in?"
	case ReasonMissingTime:
		if date, ok := data["date"].(string); ok && date != "" {
			return fmt.Sprintf("What time on %s works for you?", date)
		}
		return "What time works for you?"
	case ReasonAmbiguousTimeNoWindow:
		if t, ok := data["time"].(string); ok && t != "" {
			return fmt.Sprintf("Did you mean %s in the morning or the evening?", t)
		}
		return "Did you mean morning or evening?"
	case ReasonBareWeekday:
		if wd, ok := data["weekday"].(string); ok && wd != "" {
			return fmt.Sprintf("Do you mean this %s or next %s?", wd, wd)
		}
		return "Which week did you have in mind?"
	case ReasonVagueDate:
		return "Could you give me a specific day?"
	case ReasonContextDependentDate:
		if dt, ok := data["date_text"].(string); ok && dt != "" {
			return fmt.Sprintf("When you say %q, which date do you mean?", dt)
		}
		return "Which date do you mean?"
	case ReasonLocaleAmbiguousDate:
		if dt, ok := data["date_text"].(string); ok && dt != "" {
			return fmt.Sprintf("Is %s day/month or month/day?", dt)
		}
		return "Could you spell the date out, like 15 Dec?"
	case ReasonServiceVariant:
		family, _ := data["family"].(string)
		if candidates, ok := data["candidates"].([]string); ok && len(candidates) > 1 {
			return fmt.Sprintf("For the %s, did you want %s?", family, orJoin(candidates))
		}
		return fmt.Sprintf("Which %s option did you want?", family)
	case ReasonMultipleDatesNoRange:
		return "I see more than one date. Are those separate appointments, or a date range?"
	case ReasonMultipleTimesNoRange:
		return "I see more than one time. Which one should I book, or is it a time range?"
	case ReasonConflictingScopes:
		return "Should those services share one appointment slot, or be booked separately?"
	case ReasonConflictingSignals:
		return "Those details don't fit together. Could you restate the date and time?"
	}
	return "Could you clarify the date and time you'd like?"
}

func orJoin(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " or " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", or " + items[len(items)-1]
}
