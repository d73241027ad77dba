package protocol

// Status is one SimpleNet wire status code.
type Status int

const (
	StatusOK          Status = 20
	StatusNotFound    Status = 40
	StatusBadRequest  Status = 41
	StatusTimeout     Status = 42
	StatusServerError Status = 50
)

// Text returns the canonical reason phrase for s.
func (s Status) Text() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNotFound:
		return "Not Found"
	case StatusBadRequest:
		return "Bad Request"
	case StatusTimeout:
		return "Timeout"
	case StatusServerError:
		return "Server Error"
	default:
		return "Unknown"
	}
}

// Known reports whether s belongs to the wire vocabulary.
func (s Status) Known() bool {
	switch s {
	case StatusOK, StatusNotFound, StatusBadRequest, StatusTimeout, StatusServerError:
		return true
	default:
		return false
	}
}
