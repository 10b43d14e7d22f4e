package dice

import "go.uber.org/zap"

// LoggedSource wraps a Source and logs every draw at debug level.
type LoggedSource struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedSource creates a LoggedSource drawing from src.
//
// Precondition: src and logger must be non-nil.
func NewLoggedSource(src Source, logger *zap.Logger) *LoggedSource {
	if src == nil || logger == nil {
		panic("dice: NewLoggedSource requires a non-nil source and logger")
	}
	return &LoggedSource{src: src, logger: logger}
}

// Intn draws from the wrapped source and logs the bound and the result.
//
// Precondition: n > 0.
func (l *LoggedSource) Intn(n int) int {
	v := l.src.Intn(n)
	l.logger.Debug("random draw", zap.Int("bound", n), zap.Int("value", v))
	return v
}
