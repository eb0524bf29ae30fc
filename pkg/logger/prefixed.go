package logger

// PrefixedLogger tags every record of one component with "[prefix]" and, optionally,
// fixed attributes such as the full connection id. Prefixed loggers nest: the inner
// prefix comes last, "[irc] [conn 1a2b3c4d] Connected".
type PrefixedLogger struct {
	inner  Logger
	prefix string
	attrs  []any
}

func NewPrefixedLogger(inner Logger, prefix string) *PrefixedLogger {
	return &PrefixedLogger{
		inner:  inner,
		prefix: prefix,
	}
}

// With returns a copy that appends args to every record after the caller's own arguments.
func (p *PrefixedLogger) With(args ...any) *PrefixedLogger {
	attrs := make([]any, 0, len(p.attrs)+len(args))
	attrs = append(attrs, p.attrs...)
	attrs = append(attrs, args...)
	return &PrefixedLogger{inner: p.inner, prefix: p.prefix, attrs: attrs}
}

func (p *PrefixedLogger) msg(msg string) string {
	if p.prefix == "" {
		return msg
	}
	return "[" + p.prefix + "] " + msg
}

func (p *PrefixedLogger) args(args []any) []any {
	if len(p.attrs) == 0 {
		return args
	}
	out := make([]any, 0, len(args)+len(p.attrs))
	out = append(out, args...)
	return append(out, p.attrs...)
}

func (p *PrefixedLogger) SetLogLevel(levelStr string) {
	p.inner.SetLogLevel(levelStr)
}

func (p *PrefixedLogger) GetLogLevel() string {
	return p.inner.GetLogLevel()
}

func (p *PrefixedLogger) Trace(msg string, args ...any) {
	p.inner.Trace(p.msg(msg), p.args(args)...)
}

func (p *PrefixedLogger) Debug(msg string, args ...any) {
	p.inner.Debug(p.msg(msg), p.args(args)...)
}

func (p *PrefixedLogger) Info(msg string, args ...any) {
	p.inner.Info(p.msg(msg), p.args(args)...)
}

func (p *PrefixedLogger) Warn(msg string, args ...any) {
	p.inner.Warn(p.msg(msg), p.args(args)...)
}

func (p *PrefixedLogger) Error(msg string, err error, args ...any) {
	p.inner.Error(p.msg(msg), err, p.args(args)...)
}

func (p *PrefixedLogger) Critical(msg string, err error, args ...any) {
	p.inner.Critical(p.msg(msg), err, p.args(args)...)
}

func (p *PrefixedLogger) Fatal(msg string, err error, args ...any) {
	p.inner.Fatal(p.msg(msg), err, p.args(args)...)
}
