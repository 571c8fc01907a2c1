package core

// Logger is the application logger.
// expected args: error | map[string]interface{} | Person (the authenticated caller)
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies who triggered a logged event.
type Person struct {
	ID       string
	Username string
	Email    string
}
