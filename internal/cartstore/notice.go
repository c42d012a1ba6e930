package cartstore

type Kind string

const (
	Success Kind = "success"
	Failure Kind = "error"
)

// Notice is a transient user-facing message about an operation outcome.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = NotifierFunc(func(Notice) {})
