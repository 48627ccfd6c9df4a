package onboarding

import "strings"

// Perspectives are the angles the generated categories must cover, in order.
var Perspectives = []string{
	"Understanding of Product",
	"General Questions",
	"Competitive Analysis",
	"Customer Use Cases",
	"Pricing & Plans",
	"Technical Details",
	"Integrations & Ecosystem",
	"Market Reputation & Reviews",
	"Future Roadmap & Trends",
	"Miscellaneous/Creative Questions",
}

// SystemDirective is the fixed instruction sent with every synthesis call.
var SystemDirective = buildDirective()

func buildDirective() string {
	var b strings.Builder
	b.WriteString("You are an expert research strategist. Your task is to generate 50 diverse queries/questions ")
	b.WriteString("about a company or product based on the domain and landing page content provided. ")
	b.WriteString("Group the queries into 10 categories, each containing 5 unique questions.\n\n")
	b.WriteString("Guidelines:\n")
	b.WriteString("1. Make the categories cover different perspectives such as:\n")
	for _, p := range Perspectives {
		b.WriteString("   - ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	b.WriteString("\n2. Vary the phrasing and intent of the questions so they elicit broad, useful responses from LLMs.\n")
	b.WriteString("\n3. Use context from the provided landing page to make the questions relevant and specific.\n")
	return b.String()
}
