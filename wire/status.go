package wire

// Status is the unified response status shared by the text and binary
// connections. Numeric values match the binary protocol's status codes
// exactly; text tokens are mapped onto the same set (see FromTextToken).
type Status uint16

// Status codes. Values below 0x0100 cross the wire on the binary protocol
// and MUST NOT be renumbered. Values >= 0x0200 are client-local and never
// appear on the wire.
const (
	Success               Status = 0x0000
	KeyNotFound           Status = 0x0001
	KeyExists             Status = 0x0002
	ValueTooLarge         Status = 0x0003
	InvalidArguments      Status = 0x0004
	ItemNotStored         Status = 0x0005
	NonNumericValue       Status = 0x0006
	VBucketBelongsAnother Status = 0x0007
	AuthError             Status = 0x0008
	AuthContinue          Status = 0x0009
	UnknownCommand        Status = 0x0081
	OutOfMemory           Status = 0x0082
	NotSupported          Status = 0x0083
	InternalError         Status = 0x0084
	Busy                  Status = 0x0085
	TemporaryFailure      Status = 0x0086

	// Client-local statuses. Never sent on the wire.
	NetworkError    Status = 0x0200
	UnknownResponse Status = 0x0201
	NotImplemented  Status = 0x0202
)

var statusNames = map[Status]string{
	Success:               "Success",
	KeyNotFound:           "KeyNotFound",
	KeyExists:             "KeyExists",
	ValueTooLarge:         "ValueTooLarge",
	InvalidArguments:      "InvalidArguments",
	ItemNotStored:         "ItemNotStored",
	NonNumericValue:       "NonNumericValue",
	VBucketBelongsAnother: "VBucketBelongsAnother",
	AuthError:             "AuthError",
	AuthContinue:          "AuthContinue",
	UnknownCommand:        "UnknownCommand",
	OutOfMemory:           "OutOfMemory",
	NotSupported:          "NotSupported",
	InternalError:         "InternalError",
	Busy:                  "Busy",
	TemporaryFailure:      "TemporaryFailure",
	NetworkError:          "NetworkError",
	UnknownResponse:       "UnknownResponse",
	NotImplemented:        "NotImplemented",
}

// String implements fmt.Stringer.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UnknownResponse"
}

// FromBinaryCode maps a binary protocol status code to a Status. Unknown
// codes map to UnknownResponse, never to a zero value, so callers can't
// mistake an unrecognized code for Success.
func FromBinaryCode(code uint16) Status {
	s := Status(code)
	if _, ok := statusNames[s]; ok {
		return s
	}
	return UnknownResponse
}

var textTokenStatus = map[string]Status{
	"OK":            Success,
	"STORED":        Success,
	"DELETED":       Success,
	"TOUCHED":       Success,
	"NOT_STORED":    ItemNotStored,
	"EXISTS":        KeyExists,
	"NOT_FOUND":     KeyNotFound,
	"ERROR":         UnknownCommand,
	"CLIENT_ERROR":  InvalidArguments,
	"SERVER_ERROR":  InternalError,
}

// FromTextToken maps the first whitespace-delimited token of a text
// protocol reply line to a Status. Tokens not in the table map to
// UnknownResponse.
func FromTextToken(token string) Status {
	if s, ok := textTokenStatus[token]; ok {
		return s
	}
	return UnknownResponse
}
