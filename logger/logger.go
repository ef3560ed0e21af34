// Package logger defines the structured logging contract of the purchase
// core. Components take the interface; callers decide between the zap
// implementation and silence.
package logger

// Logger carries structured fields alongside each message. Field keys follow
// the purchase domain (purchaseId, chain, txHash).
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// NoopLogger discards everything. It is the default wherever a Logger is
// optional.
type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]any) {}
func (NoopLogger) Info(string, map[string]any)  {}
func (NoopLogger) Warn(string, map[string]any)  {}
func (NoopLogger) Error(string, map[string]any) {}
