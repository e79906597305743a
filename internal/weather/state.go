package weather

// FailureMessage is the only error text presentation layers ever see.
const FailureMessage = "Failed to load the data"

// FetchState is one of Loading, Success or Error. A nil FetchState means
// no query has been submitted yet.
type FetchState interface {
	fetchState()
}

// Loading is published as soon as a query is submitted.
type Loading struct{}

// Success carries the parsed result of a completed query.
type Success struct {
	Result WeatherResult
}

// Error carries a user-facing failure message.
type Error struct {
	Message string
}

func (Loading) fetchState() {}
func (Success) fetchState() {}
func (Error) fetchState()   {}

// IsTerminal reports whether s ends a query (Success or Error).
func IsTerminal(s FetchState) bool {
	switch s.(type) {
	case Success, Error:
		return true
	default:
		return false
	}
}
