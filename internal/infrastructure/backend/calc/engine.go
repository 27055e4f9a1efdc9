// Package calc implements the deterministic financial calculation backend.
// It parses rupee figures out of the question text and produces a tax
// breakdown without calling any model.
package calc

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/asklegal/engine/internal/core/domain"
)

const (
	rupeesPerCrore = 10_000_000
	rupeesPerLakh  = 100_000

	// Company income tax slabs, FY 2024-25.
	taxRateBelow400Cr = 0.25
	taxRateAbove400Cr = 0.30
	slabTurnover      = 400 * rupeesPerCrore

	gstStandardRate        = 0.18
	professionalTaxPerHead = 2500.0
	tdsSalaryRate          = 0.10
)

var calcKeywords = []string{
	"calculate", "computation", "how much", "what is the tax",
	"turnover", "revenue", "expenditure", "expenses", "profit",
	"salary", "cost", "amount", "pay", "tax liability",
	"net profit", "gross profit", "breakdown",
}

var digitPattern = regexp.MustCompile(`\d`)

// Detector recognizes questions that ask for an actual computation.
// It requires both a financial keyword and at least one digit, so that
// informational questions such as "what is the GST threshold" stay on
// the retrieval path.
type Detector struct{}

func NewDetector() Detector { return Detector{} }

func (Detector) Detect(question string) bool {
	lower := strings.ToLower(question)
	hasKeyword := false
	for _, keyword := range calcKeywords {
		if strings.Contains(lower, keyword) {
			hasKeyword = true
			break
		}
	}
	return hasKeyword && digitPattern.MatchString(question)
}

// Financials holds the figures extracted from a question, in rupees.
type Financials struct {
	Turnover        float64
	EmployeeCount   int
	SalaryExpense   float64
	ResourceExpense float64
	MiscExpense     float64
}

func (f Financials) HasFigures() bool { return f.Turnover > 0 }

var (
	turnoverPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:turnover|revenue)\s+(?:of\s+|is\s+)?(?:rs\.?\s*)?(\d+(?:\.\d+)?)\s*(cr|crores?|lakhs?)`),
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(cr|crores?|lakhs?)\s+turnover`),
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(cr|crores?|lakhs?)\s+revenue`),
	}
	employeePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\s+employees?`),
		regexp.MustCompile(`(?i)employees?:?\s*(\d+)`),
		regexp.MustCompile(`(?i)staff\s+of\s+(\d+)`),
	}
	salaryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)salary\s+(?:expenditure|expense|cost)?\s*(?:of\s+|is\s+)?(?:rs\.?\s*)?(\d+(?:\.\d+)?)\s*(cr|crores?|lakhs?|lpa)`),
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(lpa|lakhs?)\s+(?:salary|salaries)`),
	}
	resourcePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)resources?\s+(?:are|is|cost)?\s*(?:rs\.?\s*)?(\d+(?:\.\d+)?)\s*(cr|crores?|lakhs?|lpa)`),
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(lpa|lakhs?)\s+(?:resources?|materials?)`),
	}
)

func extractAmount(question string, patterns []*regexp.Regexp) (float64, bool) {
	for _, pattern := range patterns {
		match := pattern.FindStringSubmatch(question)
		if match == nil {
			continue
		}
		amount, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		return amount * unitMultiplier(match[2]), true
	}
	return 0, false
}

func unitMultiplier(unit string) float64 {
	if strings.Contains(strings.ToLower(unit), "cr") {
		return rupeesPerCrore
	}
	return rupeesPerLakh
}

// ExtractFinancials pulls turnover, headcount and expense figures out of
// free text. Unstated expenses are treated as miscellaneous spend so the
// profit figure stays consistent with the turnover.
func ExtractFinancials(question string) Financials {
	var f Financials
	f.Turnover, _ = extractAmount(question, turnoverPatterns)
	f.SalaryExpense, _ = extractAmount(question, salaryPatterns)
	f.ResourceExpense, _ = extractAmount(question, resourcePatterns)

	for _, pattern := range employeePatterns {
		if match := pattern.FindStringSubmatch(question); match != nil {
			f.EmployeeCount, _ = strconv.Atoi(match[1])
			break
		}
	}

	if f.Turnover > 0 {
		known := f.SalaryExpense + f.ResourceExpense
		if known > 0 && mentionsRemainder(question) {
			f.MiscExpense = f.Turnover - known
		}
	}
	return f
}

var remainderPattern = regexp.MustCompile(`(?i)\b(?:rest|remaining|miscellaneous|misc|other)\b`)

func mentionsRemainder(question string) bool {
	return remainderPattern.MatchString(question)
}

// TaxBreakdown is the result of a deterministic tax computation.
type TaxBreakdown struct {
	Turnover        float64
	TotalExpenses   float64
	ProfitBeforeTax float64
	IncomeTaxRate   float64
	IncomeTax       float64
	GSTPayable      float64
	ProfessionalTax float64
	TDSOnSalary     float64
	TotalDirectTax  float64
	ProfitAfterTax  float64
}

func ComputeTax(f Financials) TaxBreakdown {
	b := TaxBreakdown{Turnover: f.Turnover}
	b.TotalExpenses = f.SalaryExpense + f.ResourceExpense + f.MiscExpense
	b.ProfitBeforeTax = f.Turnover - b.TotalExpenses

	b.IncomeTaxRate = taxRateBelow400Cr
	if f.Turnover >= slabTurnover {
		b.IncomeTaxRate = taxRateAbove400Cr
	}
	b.IncomeTax = b.ProfitBeforeTax * b.IncomeTaxRate
	b.GSTPayable = f.Turnover * gstStandardRate
	b.ProfessionalTax = float64(f.EmployeeCount) * professionalTaxPerHead
	b.TDSOnSalary = f.SalaryExpense * tdsSalaryRate
	b.TotalDirectTax = b.IncomeTax + b.ProfessionalTax
	b.ProfitAfterTax = b.ProfitBeforeTax - b.IncomeTax
	return b
}

// Backend runs the calculation engine as a routing target.
type Backend struct{}

func NewBackend() *Backend { return &Backend{} }

func (b *Backend) ID() domain.BackendID { return domain.BackendCalc }

func (b *Backend) Available() bool { return true }

func (b *Backend) Generate(_ context.Context, req domain.GenerationRequest) (string, error) {
	financials := ExtractFinancials(req.Question)
	if !financials.HasFigures() {
		return guidanceResponse(), nil
	}
	return formatBreakdown(financials, ComputeTax(financials)), nil
}

func guidanceResponse() string {
	return "This looks like a financial calculation, but I could not find concrete figures in your question. " +
		"Please include:\n" +
		"- Turnover or revenue amount\n" +
		"- Number of employees (if applicable)\n" +
		"- Salary expenditure\n" +
		"- Other expenses\n\n" +
		"Example: \"A company has 1 crore turnover with 20 employees, salary expenditure of 20 lakhs, resources 50 lakhs\""
}

func formatBreakdown(f Financials, b TaxBreakdown) string {
	var sb strings.Builder
	sb.WriteString("Tax calculation for your business\n\n")
	sb.WriteString(fmt.Sprintf("Turnover: %s (%.2f crore)\n", rupees(b.Turnover), b.Turnover/rupeesPerCrore))

	sb.WriteString("\nExpenses:\n")
	sb.WriteString(fmt.Sprintf("- Salary expenditure: %s\n", rupees(f.SalaryExpense)))
	sb.WriteString(fmt.Sprintf("- Resource and material costs: %s\n", rupees(f.ResourceExpense)))
	sb.WriteString(fmt.Sprintf("- Miscellaneous expenses: %s\n", rupees(f.MiscExpense)))
	sb.WriteString(fmt.Sprintf("- Total expenses: %s\n", rupees(b.TotalExpenses)))
	sb.WriteString(fmt.Sprintf("\nProfit before tax: %s\n", rupees(b.ProfitBeforeTax)))

	sb.WriteString("\nTax liability:\n")
	sb.WriteString(fmt.Sprintf("- Income tax @ %.0f%%: %s\n", b.IncomeTaxRate*100, rupees(b.IncomeTax)))
	if f.EmployeeCount > 0 {
		sb.WriteString(fmt.Sprintf("- Professional tax (%d employees x %s/year): %s\n",
			f.EmployeeCount, rupees(professionalTaxPerHead), rupees(b.ProfessionalTax)))
	}
	if f.SalaryExpense > 0 {
		sb.WriteString(fmt.Sprintf("- TDS on salaries @ 10%%: %s (deducted from employee salaries)\n", rupees(b.TDSOnSalary)))
	}
	sb.WriteString(fmt.Sprintf("- GST @ 18%%: %s (typically passed on to customers)\n", rupees(b.GSTPayable)))

	sb.WriteString(fmt.Sprintf("\nTotal direct tax liability: %s\n", rupees(b.TotalDirectTax)))
	sb.WriteString(fmt.Sprintf("Net profit after tax: %s\n", rupees(b.ProfitAfterTax)))

	sb.WriteString("\nThis is a simplified estimate based on the figures you provided. ")
	sb.WriteString("Actual liability depends on deductions, exemptions and state-specific taxes. ")
	sb.WriteString("Please consult a chartered accountant for detailed tax planning.")
	return sb.String()
}

// rupees formats an amount with Indian digit grouping: the last three
// digits form one group, the rest split into pairs (lakh/crore commas).
func rupees(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	// round to paise first so a fraction of .995+ carries into the rupees
	paise := int64(math.Round(amount * 100))
	whole := paise / 100
	frac := paise % 100

	digits := strconv.FormatInt(whole, 10)
	grouped := digits
	if len(digits) > 3 {
		grouped = digits[len(digits)-3:]
		digits = digits[:len(digits)-3]
		for len(digits) > 2 {
			grouped = digits[len(digits)-2:] + "," + grouped
			digits = digits[:len(digits)-2]
		}
		grouped = digits + "," + grouped
	}

	out := fmt.Sprintf("Rs %s.%02d", grouped, frac)
	if negative {
		out = "-" + out
	}
	return out
}
