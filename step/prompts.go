package step

import (
	"github.com/hupe1980/rephrase/internal/util"
)

const intentToneSystem = `You are an expert in workplace communication. Classify the intent and the
emotional tone of a chat message, then rewrite it in a respectful register that
stays faithful to what the author meant. Use the chat history for context.
Respond with JSON only.`

var intentToneUser = util.MustParse("intent_tone", `Message: {{quote .Text}}

Chat History:
{{- if .History}}
{{- range .History}}
{{.Role}}: {{.Text}}
{{- end}}
{{- else}}
No previous context
{{- end}}

Return JSON with:
{
  "intent": "the primary intent (question, request, update, complaint, ...)",
  "tone": "one of urgent, casual, formal, neutral",
  "tone_issues": ["tone problems, if any"],
  "rewrite": "the message rewritten with an improved tone"
}`)

const claritySystem = `You are an expert in clear workplace communication. Score how clear a chat
message is, list what is vague, and rewrite it with vague references replaced by
concrete language where they can be inferred. If nothing can be inferred, return
the message unchanged as the improved version. Respond with JSON only.`

var clarityUser = util.MustParse("clarity", `Message: {{quote .Text}}

Return JSON with:
{
  "clarity_score": 0-10,
  "issues": ["clarity issues"],
  "vague_terms": ["terms that need clarification"],
  "missing_context": ["context that is missing"],
  "improved_version": "a clearer version of the message"
}`)

const taskSystem = `You are an assistant that enhances workplace messages with project context.
When a message relates to a tracked task, weave in the task id, its deadline and
its priority. Keep the tone professional and the message short.`

var taskUser = util.MustParse("task_context", `Original message: {{quote .Text}}

Related task:
- {{.Task.ID}}: {{.Task.Title}} (Due: {{.Deadline}}, Priority: {{default "Medium" .Task.Priority}})

Rewrite the message so it references {{.Task.ID}} and its deadline.
Return ONLY the enhanced message without explanation.`)

const calendarSystem = `You are an assistant that enhances workplace messages with calendar awareness.
When someone asks for an immediate meeting or response while they are busy,
propose a better time. Be respectful of their schedule and professional in tone.`

var calendarUser = util.MustParse("calendar_context", `Original message: {{quote .Text}}

Current Calendar:
{{- range .Events}}
- {{.Title}} ({{.Start}} - {{.End}})
{{- end}}

The author is busy until {{.FreeAfter}}.
Rewrite the message to propose {{.FreeAfter}} instead of right now.
Return ONLY the enhanced message without explanation.`)
