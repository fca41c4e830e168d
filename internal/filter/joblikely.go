package filter

import (
	"strings"

	"github.com/amitkr/jobmail/internal/model"
)

// jobKeywords are the fixed job-domain terms a message must mention somewhere
// in its subject or body to be worth an LLM call. "recruit" is a prefix so it
// also covers recruiter/recruiting/recruitment.
var jobKeywords = []string{
	"job", "application", "interview", "offer", "position",
	"role", "career", "candidate", "hiring", "recruit", "opening",
}

// nonJobPhrases are collocations where a job keyword appears in a clearly
// non-employment context. They are removed from the text before the keyword
// scan so e.g. a rental application without other job evidence is skipped.
var nonJobPhrases = []string{
	"rental application", "lease application", "housing application",
	"apartment application", "scholarship application", "credit application",
	"loan application", "special offer", "limited offer", "offer expires",
}

// JobLikelihood is a recall-biased keyword gate run before extraction. False
// positives are expected and corrected by the extractor; its only purpose is
// to skip mail that is obviously not about employment.
type JobLikelihood struct{}

func NewJobLikelihood() *JobLikelihood { return &JobLikelihood{} }

// Check returns pass=true with the matched keyword as reason when the subject
// or body contains any job-domain keyword outside a non-employment phrase.
func (g *JobLikelihood) Check(msg model.Message) (pass bool, reason string) {
	text := strings.ToLower(msg.Subject + " " + msg.Body)
	for _, phrase := range nonJobPhrases {
		text = strings.ReplaceAll(text, phrase, " ")
	}
	for _, kw := range jobKeywords {
		if strings.Contains(text, kw) {
			return true, "matched keyword: " + kw
		}
	}
	return false, "no job keywords"
}
