package tempo

// Handle is an opaque reference to a pending one-shot job in the job
// store. Domain entities persist a Handle for each deferred action tied
// to them; the zero value NoHandle means "no job scheduled".
//
// A Handle is a foreign key into the job store and is never interpreted
// locally. It replaces the empty-string sentinel with an explicit
// present/absent wrapper.
type Handle struct {
	value string
	valid bool
}

// NoHandle is the absent Handle.
var NoHandle Handle

// HandleOf wraps a raw handle string. An empty string yields NoHandle.
func HandleOf(s string) Handle {
	if s == "" {
		return NoHandle
	}
	return Handle{value: s, valid: true}
}

// IsSet reports whether the Handle refers to a job.
func (h Handle) IsSet() bool { return h.valid }

// String returns the raw handle string, or "" for NoHandle.
func (h Handle) String() string {
	if !h.valid {
		return ""
	}
	return h.value
}

// MarshalText implements encoding.TextMarshaler. NoHandle marshals to
// the empty string so entity documents keep their compact shape.
func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Handle) UnmarshalText(data []byte) error {
	*h = HandleOf(string(data))
	return nil
}
