// Package progress is the narrow progress-reporting seam described for
// the engine: a reporter interface the core never depends on for
// correctness, only for operator feedback, matching the no-op-capable
// wrapper in original_source/src/progress.rs.
package progress

// Reporter tracks progress of one long-running operation (a bundle load,
// a replication packet apply).
type Reporter interface {
	// New resets the reporter to track total units of work (bytes or rows).
	New(total int64)
	// Inc reports delta additional units completed.
	Inc(delta int64)
	// SetMessage updates the reporter's current status line.
	SetMessage(msg string)
	// Finish marks the tracked operation complete.
	Finish()
}

// NoOp is a Reporter that discards every call, the default when no
// interactive progress display is wanted (e.g. running under a
// supervisor or in CI).
type NoOp struct{}

// New implements Reporter.
func (NoOp) New(int64) {}

// Inc implements Reporter.
func (NoOp) Inc(int64) {}

// SetMessage implements Reporter.
func (NoOp) SetMessage(string) {}

// Finish implements Reporter.
func (NoOp) Finish() {}

var _ Reporter = NoOp{}
