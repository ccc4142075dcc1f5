package nlu

import (
	"strings"

	"github.com/bookpilot/booking-nlu/pkg/logging"
)

// Intent classification is a first-match walk over an ordered rule list.
// Precedence is data: destructive and sensitive intents sit ahead of booking
// creation so "cancel my haircut at 3" is never misread as a new booking.
// The confidence tier is a property of which rule fired, not a score.

type classifyContext struct {
	text       string // normalized sentence
	padded     string // text wrapped in spaces for whole-phrase checks
	extraction *ExtractionResult
	vocab      *Vocabulary
}

func (c *classifyContext) hasAny(phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(c.padded, " "+p+" ") {
			return true
		}
	}
	return false
}

func (c *classifyContext) hasServices() bool {
	return len(c.extraction.Services) > 0
}

func (c *classifyContext) hasTimeSignal() bool {
	return len(c.extraction.Times) > 0 || len(c.extraction.TimeWindows) > 0 ||
		len(c.extraction.Durations) > 0 || len(c.extraction.Dates) > 0 ||
		len(c.extraction.AbsoluteDates) > 0
}

func (c *classifyContext) hasBookingVerb() bool {
	for _, tok := range strings.Fields(c.text) {
		if _, ok := c.vocab.BookingVerbs[tok]; ok {
			return true
		}
	}
	return false
}

func (c *classifyContext) availabilityPhrasing() bool {
	return c.hasAny("available", "availability", "openings", "any slots", "free slots",
		"do you have", "are you open", "any opening")
}

type classifierRule struct {
	name   string
	intent Intent
	tier   ConfidenceTier
	match  func(c *classifyContext) bool
}

// IntentClassifier applies the ordered rule list to the parameterized
// sentence and extracted entities.
type IntentClassifier struct {
	rules  []classifierRule
	vocab  *Vocabulary
	logger *logging.Logger
}

// NewIntentClassifier builds the classifier with its fixed precedence order.
func NewIntentClassifier(vocab *Vocabulary, logger *logging.Logger) *IntentClassifier {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IntentClassifier{
		vocab:  vocab,
		logger: logger,
		rules: []classifierRule{
			{
				name: "payment_language", intent: IntentPayment, tier: TierHigh,
				match: func(c *classifyContext) bool {
					return c.hasAny("pay", "payment", "deposit", "invoice", "refund", "charge me", "card on file")
				},
			},
			{
				name: "cancellation_language", intent: IntentCancelBooking, tier: TierHigh,
				match: func(c *classifyContext) bool {
					return c.hasAny("cancel", "call off", "scrap", "drop my")
				},
			},
			{
				name: "reschedule_language", intent: IntentModifyBooking, tier: TierHigh,
				match: func(c *classifyContext) bool {
					return c.hasAny("reschedule", "move my", "change my", "push back", "postpone", "bring forward")
				},
			},
			{
				name: "existing_booking_question", intent: IntentBookingInquiry, tier: TierHigh,
				match: func(c *classifyContext) bool {
					return c.hasAny("do i have", "when is my", "my appointment", "my booking", "is my appointment")
				},
			},
			{
				name: "availability_phrasing", intent: IntentAvailability, tier: TierHigh,
				match: func(c *classifyContext) bool {
					return c.availabilityPhrasing()
				},
			},
			{
				name: "services_with_time", intent: IntentCreateBooking, tier: TierMedium,
				match: func(c *classifyContext) bool {
					return c.hasServices() && c.hasTimeSignal() && !c.availabilityPhrasing()
				},
			},
			{
				name: "booking_verb_with_time", intent: IntentCreateBooking, tier: TierLow,
				match: func(c *classifyContext) bool {
					return c.hasBookingVerb() && c.hasTimeSignal()
				},
			},
			{
				name: "attribute_question", intent: IntentDetails, tier: TierHigh,
				match: func(c *classifyContext) bool {
					return c.hasAny("how long", "tell me about", "what does", "does it include", "what is included")
				},
			},
			{
				name: "price_question", intent: IntentQuote, tier: TierHigh,
				match: func(c *classifyContext) bool {
					return c.hasAny("how much", "price", "pricing", "cost", "rates", "quote")
				},
			},
			{
				name: "discovery_phrasing", intent: IntentDiscovery, tier: TierHigh,
				match: func(c *classifyContext) bool {
					return c.hasAny("what services", "what do you offer", "what do you do", "list of services")
				},
			},
			{
				name: "services_no_time", intent: IntentDiscovery, tier: TierMedium,
				match: func(c *classifyContext) bool {
					return c.hasServices() && !c.hasTimeSignal()
				},
			},
			{
				name: "recommendation_phrasing", intent: IntentRecommendation, tier: TierHigh,
				match: func(c *classifyContext) bool {
					return c.hasAny("recommend", "suggest", "what should i", "which one is best")
				},
			},
		},
	}
}

// Classify returns exactly one IntentDecision per request. Unmatched input
// falls through to UNKNOWN at low confidence.
func (ic *IntentClassifier) Classify(extraction *ExtractionResult) IntentDecision {
	ctx := &classifyContext{
		text:       extraction.NormalizedText,
		padded:     " " + extraction.NormalizedText + " ",
		extraction: extraction,
		vocab:      ic.vocab,
	}
	for _, rule := range ic.rules {
		if rule.match(ctx) {
			ic.logger.Debug("intent rule fired", "rule", rule.name, "intent", string(rule.intent))
			return IntentDecision{Intent: rule.intent, Tier: rule.tier, Rule: rule.name}
		}
	}
	return IntentDecision{Intent: IntentUnknown, Tier: TierLow, Rule: "fallback"}
}
