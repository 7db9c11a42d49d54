package chainerr

// Category is the closed set of failure kinds surfaced to callers.
type Category string

const (
	NotAuthorized     Category = "NotAuthorized"
	NotWhitelisted    Category = "NotWhitelisted"
	InsufficientFunds Category = "InsufficientFunds"
	AlreadyClaimed    Category = "AlreadyClaimed"
	EventClosed       Category = "EventClosed"
	ResourceNotFound  Category = "ResourceNotFound"
	InvalidInput      Category = "InvalidInput"
	TransportFailure  Category = "TransportFailure"
	Unknown           Category = "Unknown"
)

// Categories lists every category in a stable order.
var Categories = []Category{
	NotAuthorized,
	NotWhitelisted,
	InsufficientFunds,
	AlreadyClaimed,
	EventClosed,
	ResourceNotFound,
	InvalidInput,
	TransportFailure,
	Unknown,
}

var messages = map[Category]string{
	NotAuthorized:     "You are not authorized to perform this action.",
	NotWhitelisted:    "This email is not on the event whitelist.",
	InsufficientFunds: "Insufficient balance to pay for this transaction. Please fund the paying address and try again.",
	AlreadyClaimed:    "This certificate or entry has already been claimed.",
	EventClosed:       "This event is closed.",
	ResourceNotFound:  "The requested account, event or object does not exist.",
	InvalidInput:      "The request contains invalid input.",
	TransportFailure:  "Could not reach the network. Please try again.",
	Unknown:           "An unexpected error occurred.",
}

// abort codes raised by the popchain Move package
var abortCodes = map[uint64]Category{
	0: NotAuthorized,
	1: ResourceNotFound,
	2: AlreadyClaimed,
	3: NotWhitelisted,
	4: EventClosed,
	5: InsufficientFunds,
	6: InvalidInput, // tier out of range
	7: InvalidInput, // unknown role
}

// CategoryForCode looks up an abort code.
func CategoryForCode(code uint64) (Category, bool) {
	c, ok := abortCodes[code]
	return c, ok
}

func (c Category) Message() string {
	if m, ok := messages[c]; ok {
		return m
	}
	return messages[Unknown]
}

// Retryable reports whether repeating the same submission may succeed.
// Only transport failures qualify; anything the ledger rejected will be
// rejected again.
func (c Category) Retryable() bool {
	return c == TransportFailure
}

func (c Category) String() string {
	return string(c)
}
