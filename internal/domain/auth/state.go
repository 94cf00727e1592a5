package auth

// Event drives a SessionState transition.
type Event string

const (
	EventSubmit  Event = "submit"
	EventSuccess Event = "success"
	EventFailure Event = "failure"
	EventReject  Event = "reject"  // local validation failure, no request issued
	EventLogout  Event = "logout"  // explicit logout; supersedes any in-flight request
	EventExpire  Event = "expire"  // token expiry detected
	EventRestore Event = "restore" // persisted session restored at startup
)

var transitions = map[Status]map[Event]Status{
	StatusAnonymous: {
		EventSubmit:  StatusAuthenticating,
		EventReject:  StatusFailed,
		EventRestore: StatusAuthenticated,
	},
	StatusAuthenticating: {
		EventSuccess: StatusAuthenticated,
		EventFailure: StatusFailed,
		EventLogout:  StatusAnonymous,
	},
	StatusFailed: {
		EventSubmit: StatusAuthenticating,
		EventReject: StatusFailed,
		EventLogout: StatusAnonymous,
	},
	StatusAuthenticated: {
		EventLogout: StatusAnonymous,
		EventExpire: StatusAnonymous,
	},
}

// Next returns the status reached from `from` on ev, and whether the transition is legal.
func Next(from Status, ev Event) (Status, bool) {
	to, ok := transitions[from][ev]
	return to, ok
}
