// Package job defines the job entity, the closed kind registry, typed
// definitions, and the job store contract.
//
// # Job Entity
//
// A [Job] is one unit of deferred work. It embeds [tempo.Entity] for
// timestamps, carries a typed payload (JSON), and progresses through a
// state machine:
//
//	pending → running → completed
//	pending → running → failed
//	pending → cancelled
//
// RunAt is the earliest instant the store may hand the job to a worker.
// The job's ID string is the opaque handle callers persist on domain
// entities; cancelling by handle removes a still-pending job.
//
// # Defining a Job Kind
//
// Use [Definition] with a typed handler. The payload is JSON-serialized
// at schedule time and deserialized before the handler runs. Handlers
// return a [tempo.Outcome] so the worker can record how the execution
// ended:
//
//	var ContentAvailable = job.NewDefinition(session.KindContentAvailable,
//	    func(ctx context.Context, args session.ContentAvailableArgs) (tempo.Outcome, error) {
//	        ...
//	    },
//	)
//
// # Registry
//
// [Registry] maps job kinds to type-erased [HandlerFunc] values. The
// set of kinds is closed: every kind is registered once at startup via
// [RegisterDefinition], and scheduling a kind the registry does not
// know fails fast with [tempo.ErrUnknownKind]. Kinds() enumerates the
// full set, which keeps every job body reachable from tests.
package job
