package context

type Key string

const (
	Session Key = "session"
	Params  Key = "params"
)
