package monitor

// Kind identifies the type of an Observation.
type Kind uint8

const (
	// KindAppeared reports that the tracker started following a subject.
	KindAppeared Kind = iota + 1
	// KindUpdated reports that the current subject was seen again in a new frame.
	KindUpdated
	// KindLost reports that the subject was missing from the latest frame.
	KindLost
	// KindEnded reports that the tracker gave up on the subject.
	KindEnded
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAppeared:
		return "appeared"
	case KindUpdated:
		return "updated"
	case KindLost:
		return "lost"
	case KindEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Observation is a single per-frame event about at most one subject.
// Subject is only meaningful for KindAppeared and KindUpdated.
// Payload carries detector output and is never inspected by the Monitor.
type Observation[S comparable] struct {
	Kind    Kind
	Subject S
	Payload any
	// DetectionSetEmpty is set on KindLost when the frame had no detections at all.
	DetectionSetEmpty bool
}

// Appeared builds a KindAppeared observation.
func Appeared[S comparable](subject S, payload any) Observation[S] {
	return Observation[S]{Kind: KindAppeared, Subject: subject, Payload: payload}
}

// Updated builds a KindUpdated observation.
func Updated[S comparable](subject S, payload any) Observation[S] {
	return Observation[S]{Kind: KindUpdated, Subject: subject, Payload: payload}
}

// Lost builds a KindLost observation.
func Lost[S comparable](detectionSetEmpty bool) Observation[S] {
	return Observation[S]{Kind: KindLost, DetectionSetEmpty: detectionSetEmpty}
}

// Ended builds a KindEnded observation.
func Ended[S comparable]() Observation[S] {
	return Observation[S]{Kind: KindEnded}
}

// Notification is emitted once a subject has been stable for long enough.
type Notification[S comparable] struct {
	Subject S
	// Streak is the consecutive update count at the moment of firing.
	Streak int
}
