package pipeline

// Phase is a stage of one refresh run.
type Phase int32

const (
	Idle Phase = iota
	Fetching
	Resolving
	Merging
	Publishing
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Resolving:
		return "resolving"
	case Merging:
		return "merging"
	case Publishing:
		return "publishing"
	default:
		return "unknown"
	}
}
