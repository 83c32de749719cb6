package coordinator

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/hupe1980/rephrase/internal/util"
	"github.com/hupe1980/rephrase/oracle"
)

// DefaultConfidence is reported when the scorer reply holds no number.
const DefaultConfidence = 0.5

const confidenceSystem = `You evaluate rephrased workplace messages. Judge whether the rephrased
message keeps the meaning of the original, uses a professional tone, reads more
clearly and fits the context. Reply with a single confidence score between 0.0
and 1.0 and nothing else.`

var confidenceUser = util.MustParse("confidence", `Original message: {{.Original}}

Rephrased message: {{.Rephrased}}

Evaluate the rephrased message and provide a confidence score (0.0 to 1.0).`)

var scorePattern = regexp.MustCompile(`\b(?:0(?:\.\d+)?|1(?:\.0+)?)\b`)

// ParseConfidence extracts the first standalone score in [0,1] from a scorer
// reply. Numbers outside the range such as "9" or "10/10" are not scores;
// replies without one yield DefaultConfidence.
func ParseConfidence(reply string) float64 {
	m := scorePattern.FindString(reply)
	if m == "" {
		return DefaultConfidence
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return DefaultConfidence
	}
	return max(0, min(v, 1))
}

// scoreConfidence asks o to rate rephrased against original. The call is
// bounded by timeout; a scorer that ignores its context is abandoned and its
// late reply discarded.
func scoreConfidence(ctx context.Context, o oracle.Oracle, timeout time.Duration, original, rephrased string) (float64, error) {
	prompt, err := util.Render(confidenceUser, struct{ Original, Rephrased string }{original, rephrased})
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		text, err := o.Complete(ctx, oracle.Prompt{System: confidenceSystem, User: prompt})
		done <- reply{text, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return 0, r.err
		}
		return ParseConfidence(r.text), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
