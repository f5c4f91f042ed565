package primary

// Logger is the structured logger used across the server. Arguments are
// alternating keys and values.
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}
