package transport

// Role is the protocol role a context plays on the network.
type Role int

const (
	// RoleController is the multi-AP controller / registrar.
	RoleController Role = iota
	// RoleAgent is an agent / enrollee.
	RoleAgent
)

// String returns the string representation of the role.
func (r Role) String() string {
	switch r {
	case RoleController:
		return "controller"
	case RoleAgent:
		return "agent"
	default:
		return "unknown"
	}
}

// IsValid returns true if the role is a known value.
func (r Role) IsValid() bool {
	return r == RoleController || r == RoleAgent
}

// ParseRole maps "controller" or "agent" to a Role.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "controller":
		return RoleController, true
	case "agent":
		return RoleAgent, true
	default:
		return 0, false
	}
}

// PollResult reports what a single Poll did.
type PollResult int

const (
	// PollError means the socket failed; the error is returned alongside.
	PollError PollResult = iota
	// PollHandled means one frame was decoded and dispatched.
	PollHandled
	// PollDropped means one datagram was received but could not be decoded.
	PollDropped
	// PollTimedOut means no datagram arrived before the timeout.
	PollTimedOut
)

// String returns the string representation of the poll result.
func (r PollResult) String() string {
	switch r {
	case PollHandled:
		return "handled"
	case PollDropped:
		return "dropped"
	case PollTimedOut:
		return "timed out"
	default:
		return "error"
	}
}

// SourceOrigin records where a frame's source identity came from.
// No origin is authenticated.
type SourceOrigin int

const (
	// SourceSynthesized is a random locally administered address; the
	// frame carried nothing to identify its sender.
	SourceSynthesized SourceOrigin = iota
	// SourcePayload is the AL MAC carried in the frame's own TLVs.
	SourcePayload
	// SourceLinkLayer is the Ethernet source address reported by the socket.
	SourceLinkLayer
)

// String returns the string representation of the source origin.
func (o SourceOrigin) String() string {
	switch o {
	case SourcePayload:
		return "payload"
	case SourceLinkLayer:
		return "link-layer"
	default:
		return "synthesized"
	}
}
