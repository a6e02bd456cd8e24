// Package ir is the intermediate representation node lowering emits into,
// plus a reference interpreter for executing it.
//
// The IR is structured rather than SSA: a function is a parameter list and
// a statement tree built from scalar and array locals, assignments, bounded
// counting loops, vector lane operations, cross-function calls, and
// parallel task dispatch. A node's Compile implementation builds one region
// of a function through a Builder; the compile package supplies the policy
// helpers (task splitting, vector/remainder loops) on top of these
// primitives.
//
// Task dispatch is the only concurrency in the system and exists solely in
// emitted code: StartTasks launches K invocations of a task function
// against the runtime pool and WaitAll joins all of them before any
// following statement runs. A started task set always runs to completion;
// there is no cancellation and no error channel for tasks.
package ir
