// Package fallback provides the terminal rule-based backend. It never
// fails, so a routing chain that reaches it always produces an answer.
package fallback

import (
	"context"
	"strings"

	"github.com/asklegal/engine/internal/core/domain"
)

type topic struct {
	keywords []string
	response string
}

var topics = []topic{
	{
		keywords: []string{"register", "registration", "incorporate", "udyam", "license", "licence"},
		response: "For business registration, start with Udyam registration on the government MSME portal, " +
			"then obtain the licenses your activity requires, such as a shop and establishment license, " +
			"GST registration if turnover crosses the threshold, and any industry-specific permits.",
	},
	{
		keywords: []string{"gst", "tax", "tds", "income tax", "return", "filing"},
		response: "Tax obligations for small businesses commonly include GST registration and monthly returns " +
			"once turnover crosses the threshold, advance income tax payments, and TDS deduction on salaries " +
			"and contractor payments. Deadlines and rates change, so verify against the latest notifications.",
	},
	{
		keywords: []string{"employee", "labour", "labor", "wages", "pf", "esi", "gratuity"},
		response: "Employer obligations typically cover minimum wages, provident fund and ESI contributions " +
			"above the headcount thresholds, gratuity after five years of service, and maintaining statutory " +
			"registers. State shops and establishments acts add working-hour and leave rules.",
	},
	{
		keywords: []string{"contract", "agreement", "clause", "breach", "dispute"},
		response: "For contracts, put the essential terms in writing: parties, consideration, deliverables, " +
			"payment schedule, termination and dispute resolution. A breach generally entitles the injured " +
			"party to damages, and many commercial agreements route disputes through arbitration first.",
	},
}

const genericResponse = "I could not produce a specific answer to your question right now. " +
	"Common starting points for MSME legal matters are the Udyam registration portal, the GST portal " +
	"for tax questions, and your state's labour department for employment rules."

const disclaimer = "\n\nThis is general information, not legal advice. Please consult a qualified " +
	"professional for guidance on your specific situation."

type Backend struct{}

func New() *Backend { return &Backend{} }

func (b *Backend) ID() domain.BackendID { return domain.BackendFallback }

func (b *Backend) Available() bool { return true }

func (b *Backend) Generate(_ context.Context, req domain.GenerationRequest) (string, error) {
	lower := strings.ToLower(req.Question)
	for _, t := range topics {
		for _, keyword := range t.keywords {
			if strings.Contains(lower, keyword) {
				return t.response + disclaimer, nil
			}
		}
	}
	return genericResponse + disclaimer, nil
}
