package types

// CardID is the numeric UID reported by the RFID reader for one tag.
type CardID uint64

// ScanOutcome is what a single poll tick did to the tracked presence.
type ScanOutcome int

const (
	// OutcomeNone: the reading matched what was already tracked.
	OutcomeNone ScanOutcome = iota
	// OutcomeAuthorized: a new tag arrived and matches the authorized id.
	OutcomeAuthorized
	// OutcomeUnauthorized: a new tag arrived and does not match.
	OutcomeUnauthorized
	// OutcomeRemoved: the tracked tag left the field; an episode opened.
	OutcomeRemoved
)

func (o ScanOutcome) String() string {
	switch o {
	case OutcomeAuthorized:
		return "authorized"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeRemoved:
		return "removed"
	default:
		return "none"
	}
}
