package server

// Example is a canned before/after pair shown by the web client.
type Example struct {
	Original  string `json:"original"`
	Rephrased string `json:"rephrased"`
	Category  string `json:"category"`
}

// Examples is the fixed list served by /examples.
var Examples = []Example{
	{
		Original:  "Do this now",
		Rephrased: "Please prioritize this task",
		Category:  "Tone",
	},
	{
		Original:  "Update?",
		Rephrased: "Just checking in. Do you have any updates when you get a moment?",
		Category:  "Intent + Emotion",
	},
	{
		Original:  "Pointer mismatch maybe copying wrong",
		Rephrased: "I suspect a pointer mismatch might be causing the copy issue.",
		Category:  "Clarity",
	},
	{
		Original:  "Need this today",
		Rephrased: "Could you please prioritize this task today? It's due by 5PM in Jira.",
		Category:  "Jira Context",
	},
	{
		Original:  "Can we talk now?",
		Rephrased: "Noticed you're in meetings. Can we connect after 3 PM when you're free?",
		Category:  "Calendar Context",
	},
	{
		Original:  "Fix this",
		Rephrased: "Could you take a look at this when you get a chance? Let me know if you need help.",
		Category:  "Combined",
	},
}
