package logger

// Logger defines the interface for logging operations.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	Fatal() *LogEvent
}

// pkgLogger adapts the package-level helpers to the Logger interface.
type pkgLogger struct{}

func (pkgLogger) Debug() *LogEvent { return Debug() }
func (pkgLogger) Info() *LogEvent  { return Info() }
func (pkgLogger) Warn() *LogEvent  { return Warn() }
func (pkgLogger) Error() *LogEvent { return Error() }
func (pkgLogger) Fatal() *LogEvent { return Fatal() }

// Default returns a Logger backed by the package-level logger.
func Default() Logger {
	return pkgLogger{}
}
