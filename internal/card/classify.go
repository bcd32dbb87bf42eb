package card

// Outcome classifies a card number against the fixed test fixtures of
// the mock gateway.
type Outcome int

const (
	// Unknown means the number is not one of the test fixtures; the
	// gateway decides its fate.
	Unknown Outcome = iota
	// Approved is the guaranteed-success test card.
	Approved
	// Declined is the hard-decline test card, intercepted before any
	// gateway call.
	Declined
)

func (o Outcome) String() string {
	switch o {
	case Approved:
		return "approved"
	case Declined:
		return "declined"
	default:
		return "unknown"
	}
}

const (
	approvedNumber = "4242424242424242"
	declinedNumber = "4000000000000002"
)

// ClassifyNumber matches the sanitized card number against the test
// fixtures. The decline sentinel passes the Luhn checksum on purpose:
// it models a payment-network refusal, not a transcription error, and
// must stay an exact-match fixture rather than grow into decline logic.
func ClassifyNumber(number string) Outcome {
	switch Digits(number) {
	case approvedNumber:
		return Approved
	case declinedNumber:
		return Declined
	default:
		return Unknown
	}
}
