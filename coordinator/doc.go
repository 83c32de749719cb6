// Package coordinator runs the rewrite steps for one message and merges their
// candidates into a single core.Suggestion.
//
// Steps are dispatched concurrently, each under its own timeout. A failed or
// timed-out step only removes that tier from the merge. The merge itself is a
// pure function of the step outcomes and a precedence list, so the result
// does not depend on which step finished first. Only when every invoked step
// fails does the request fail, with ErrAllStepsFailed.
package coordinator
