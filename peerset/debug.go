package peerset

// logClosure defers an expensive Stringer computation until (if ever)
// the active log level actually formats it, avoiding the cost of
// dumping a structure when tracing is disabled.
type logClosure func() string

func (c logClosure) String() string {
	return c()
}

func newLogClosure(fn func() string) logClosure {
	return logClosure(fn)
}
