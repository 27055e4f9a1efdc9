package privacy

import "regexp"

// One canonical pattern table feeds both classification and redaction so the
// two can never drift apart.

type patternGroup struct {
	category string
	patterns []*regexp.Regexp
}

// Highly sensitive: legal-proceeding identifiers and criminal-matter terms.
// Checked first; any match short-circuits to HIGHLY_SENSITIVE.
var highlySensitiveGroups = []patternGroup{
	{
		category: "legal_case_details",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(case no|court|judge|plaintiff|defendant)\b`),
			regexp.MustCompile(`(?i)\b(fir|complaint|petition)\b`),
		},
	},
	{
		category: "criminal_information",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(criminal|offense|offence|crime|felony|misdemeanor)\b`),
		},
	},
}

var sensitiveGroups = []patternGroup{
	{
		category: "personal_identification",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(aadhar|aadhaar|pan|social security|ssn)\b`),
			regexp.MustCompile(`\b\d{12}\b`),
			regexp.MustCompile(`\b[A-Z]{5}\d{4}[A-Z]\b`),
		},
	},
	{
		category: "financial_information",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(account|bank|credit card|debit card)\b`),
			regexp.MustCompile(`\b\d{10,16}\b`),
			regexp.MustCompile(`(?i)\b(ifsc|swift|bic)\b`),
		},
	},
	{
		category: "business_confidential",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(profit|loss|revenue|turnover|salary)\b`),
			regexp.MustCompile(`(?i)\b(confidential|proprietary|trade secret)\b`),
		},
	},
}

// Redaction rules replace matched spans with one fixed placeholder per PII
// category. Order matters: longer numeric spans are consumed before the bare
// 10-digit phone rule. Placeholders contain no digits and never re-match, so
// redaction is idempotent.
var redactionRules = []struct {
	pattern     *regexp.Regexp
	placeholder string
}{
	{regexp.MustCompile(`\b\d{12}\b`), "[REDACTED_ID]"},
	{regexp.MustCompile(`\b[A-Z]{5}\d{4}[A-Z]\b`), "[REDACTED_ID]"},
	{regexp.MustCompile(`\b\d{10,16}\b`), "[REDACTED_ACCOUNT]"},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[REDACTED_EMAIL]"},
	{regexp.MustCompile(`\b\d{3}-\d{3}-\d{4}\b`), "[REDACTED_PHONE]"},
	{regexp.MustCompile(`\b\d{10}\b`), "[REDACTED_PHONE]"},
}
