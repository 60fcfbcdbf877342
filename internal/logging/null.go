package logging

// NullLogger discards all log messages. Used in tests and anywhere a
// pgrls.Logger is required but output is unwanted.
type NullLogger struct{}

// NewNullLogger creates a logger that discards everything.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Verbose(_ string, _ ...interface{}) {}
func (l *NullLogger) Info(_ string, _ ...interface{})    {}
func (l *NullLogger) Error(_ string, _ ...interface{})   {}
