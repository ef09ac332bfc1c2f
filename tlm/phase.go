package tlm

import "fmt"

// Phase is the phase of the four-phase handshake a transaction is in.
type Phase int

// The phases of the four-phase handshake.
const (
	UninitializedPhase Phase = iota
	BeginReq
	EndReq
	BeginResp
	EndResp
)

func (p Phase) String() string {
	switch p {
	case UninitializedPhase:
		return "UNINITIALIZED_PHASE"
	case BeginReq:
		return "BEGIN_REQ"
	case EndReq:
		return "END_REQ"
	case BeginResp:
		return "BEGIN_RESP"
	case EndResp:
		return "END_RESP"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// SyncStatus tells the caller of a non-blocking transport call how the
// callee treated the call.
type SyncStatus int

const (
	// Accepted means the callee took the phase and will answer later on the
	// opposite path. Phase and delay are unchanged.
	Accepted SyncStatus = iota

	// Updated means the callee moved the transaction to a new phase. The
	// returned delay must be honoured before acting on the new phase.
	Updated

	// Completed means the exchange is over.
	Completed
)

func (s SyncStatus) String() string {
	switch s {
	case Accepted:
		return "TLM_ACCEPTED"
	case Updated:
		return "TLM_UPDATED"
	case Completed:
		return "TLM_COMPLETED"
	default:
		return fmt.Sprintf("SyncStatus(%d)", int(s))
	}
}

// Command is the operation a transaction performs on its target.
type Command int

// Supported commands.
const (
	IgnoreCommand Command = iota
	ReadCommand
	WriteCommand
)

func (c Command) String() string {
	switch c {
	case IgnoreCommand:
		return "IGNORE"
	case ReadCommand:
		return "READ"
	case WriteCommand:
		return "WRITE"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// ResponseStatus is set by the target that executes a transaction.
type ResponseStatus int

// Response statuses.
const (
	IncompleteResponse ResponseStatus = iota
	OKResponse
	AddressErrorResponse
	CommandErrorResponse
	GenericErrorResponse
)

func (s ResponseStatus) String() string {
	switch s {
	case IncompleteResponse:
		return "TLM_INCOMPLETE_RESPONSE"
	case OKResponse:
		return "TLM_OK_RESPONSE"
	case AddressErrorResponse:
		return "TLM_ADDRESS_ERROR_RESPONSE"
	case CommandErrorResponse:
		return "TLM_COMMAND_ERROR_RESPONSE"
	case GenericErrorResponse:
		return "TLM_GENERIC_ERROR_RESPONSE"
	default:
		return fmt.Sprintf("ResponseStatus(%d)", int(s))
	}
}

// IsOK returns true if the target completed the transaction successfully.
func (s ResponseStatus) IsOK() bool {
	return s == OKResponse
}
