package device

// Reachability is how a command can reach a device right now.
type Reachability int

const (
	// Unreachable devices receive no property or function commands.
	Unreachable Reachability = iota

	// Online devices take commands on the online topic variants.
	Online

	// ShadowEligibleOffline devices are offline but shadowed; commands go to
	// the offline topic variants and are replayed on reconnect.
	ShadowEligibleOffline
)

func (r Reachability) String() string {
	switch r {
	case Online:
		return "online"
	case ShadowEligibleOffline:
		return "shadow_offline"
	default:
		return "unreachable"
	}
}

// Classify maps a device snapshot to its reachability. Any status other
// than online, unknown included, counts as offline: the shadow flag then
// decides between ShadowEligibleOffline and Unreachable.
func Classify(d Device) Reachability {
	if d.Status == StatusOnline {
		return Online
	}
	if d.ShadowEnabled {
		return ShadowEligibleOffline
	}
	return Unreachable
}
