package domain

// Priority is the ordered dispatch tier for an event. Higher value speaks
// first. The numeric gaps matter: preemption compares tier values against
// a margin, so tiers are spaced 25 apart.
type Priority int

const (
	PriorityIgnore   Priority = 0   // dropped, never queued
	PriorityLow      Priority = 25  // routine events, idle commentary
	PriorityMedium   Priority = 50  // notable events
	PriorityHigh     Priority = 75  // multi-kills, bomb events
	PriorityCritical Priority = 100 // death, health emergencies
)

func (p Priority) String() string {
	switch p {
	case PriorityIgnore:
		return "IGNORE"
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	case PriorityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}
