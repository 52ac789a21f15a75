// Package job defines the runtime record for a single shell pipeline.
package job

import (
	"strconv"

	"go.jetify.com/typeid"
)

// ID is a small positive integer, unique within the job table while the
// Job is alive. It is what the jobs/fg/bg built-ins take and print.
type ID int

// UIDPrefix names the internal correlation identifier attached to every
// Job for debug logging.
type UIDPrefix struct{}

func (UIDPrefix) Prefix() string { return "job" }

// UID is a globally unique, sortable identifier used only to correlate a
// Job's debug log lines across its lifetime; it plays no part in the
// user-visible job numbering contract of ID.
type UID struct {
	typeid.TypeID[UIDPrefix]
}

func newUID() UID {
	// a typeid is only invalid if crypto/rand fails, which the rest of
	// the process can't meaningfully recover from either; fall back to
	// the zero value rather than propagate a startup error for what is
	// only a logging correlation id.
	uid, err := typeid.New[UID]()
	if err != nil {
		return UID{}
	}
	return uid
}

// Job is the runtime record for one parsed pipeline.
type Job struct {
	ID  ID
	UID UID

	// Pgid is the OS process group id, equal to the pid of the
	// pipeline's leftmost child. It is set once the first stage has
	// been started.
	Pgid int

	// Background is false while the job owns the controlling terminal.
	Background bool

	// ArgvDisplay is the original argv sequence, used by the jobs
	// built-in, including a trailing "&" token when the job was
	// launched in the background.
	ArgvDisplay []string

	// PipelineLen is the number of commands in the pipeline.
	PipelineLen int
}

// New creates a Job record. It does not allocate a table slot or start
// any process; it is a plain value the job table takes ownership of.
func New(id ID, argvDisplay []string, pipelineLen int, background bool) *Job {
	return &Job{
		ID:          id,
		UID:         newUID(),
		Background:  background,
		ArgvDisplay: argvDisplay,
		PipelineLen: pipelineLen,
	}
}

// Display renders the job the way the jobs built-in prints it:
// "<id>: <argv...>", matching the original argv_display recorded at
// parse time (which already includes a trailing "&" for background
// jobs).
func (j *Job) Display() string {
	s := j.ID.String() + ":"
	for _, a := range j.ArgvDisplay {
		s += " " + a
	}
	return s
}

// String implements fmt.Stringer for ID so job numbers print without
// needing strconv at every call site.
func (id ID) String() string {
	return strconv.Itoa(int(id))
}
