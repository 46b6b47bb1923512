// Package student contains the student aggregate and the thesis lifecycle
// state machine.
//
// A student progresses through 13 strictly ordered milestones, from title
// submission to the final result. The only legal forward move is to the
// immediately next stage; skipping is never permitted, and silent no-ops do
// not exist - a repeated or out-of-order advance is an error the caller must
// handle. Backward moves exist solely for the revision loop: a Fail or
// Pass-with-Revision outcome at the terminal stage sends the student back to
// the chapter-upload milestone, a bounded number of times.
//
// The aggregate is the single writer of its own stage. Scheduling commands
// drive stage changes through it (a committed Sempro moves 7 -> 8, a
// committed final defense moves 10 -> 11); evaluation commands drive the
// terminal transitions. Cancelling a session does not touch the stage:
// cancellation is a logistics failure, not an academic regression.
package student
