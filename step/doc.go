// Package step implements the four independent rewrite steps of the rephrase
// pipeline:
//
//   - IntentTone classifies intent and tone and proposes a respectful rewrite
//   - Clarity resolves vague wording into concrete language
//   - TaskContext injects task id and deadline when the message relates to a task
//   - CalendarContext proposes a later time when the author is busy right now
//
// Steps share no state and may run concurrently. Every oracle failure is
// reported as a *Error so the caller can drop the step's contribution without
// aborting the request. TaskContext and CalendarContext decide relevance
// deterministically and only consult the oracle once a match is found.
package step
