package gmail

import "strings"

// atsDomains maps sender-domain fragments to the applicant-tracking system
// behind them. The hint is passed to the extractor as context only; an
// unrecognized sender simply yields no hint.
var atsDomains = map[string]string{
	"greenhouse.io":     "greenhouse",
	"greenhouse-mail":   "greenhouse",
	"lever.co":          "lever",
	"hire.lever.co":     "lever",
	"myworkday.com":     "workday",
	"workday.com":       "workday",
	"ashbyhq.com":       "ashby",
	"gem.com":           "gem",
	"icims.com":         "icims",
	"smartrecruiters":   "smartrecruiters",
	"linkedin.com":      "linkedin",
	"indeed.com":        "indeed",
	"jobvite.com":       "jobvite",
	"successfactors":    "successfactors",
	"oraclecloud.com":   "oracle",
	"wellfound.com":     "wellfound",
	"hackerrankforwork": "hackerrank",
}

// platformHint derives an ATS tag from the sender address, e.g.
// "no-reply@us.greenhouse-mail.io" → "greenhouse".
func platformHint(sender string) string {
	s := strings.ToLower(sender)
	for domain, ats := range atsDomains {
		if strings.Contains(s, domain) {
			return ats
		}
	}
	return ""
}
