package classifier

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tier one carries high-precision institutional and party terms. A single
// phrase match here is a strong signal on its own.
var institutionalTerms = []string{
	"lok sabha",
	"rajya sabha",
	"parliament",
	"supreme court",
	"high court",
	"election commission",
	"prime minister",
	"chief minister",
	"union cabinet",
	"president of india",
	"bjp",
	"congress",
	"aap",
	"dmk",
	"tmc",
	"nda",
	"ordinance",
	"amendment bill",
	"no-confidence motion",
}

// Tier two carries broader governance and conflict vocabulary. These words
// appear in non-political stories too, so they need more hits to count.
var governanceTerms = []string{
	"election",
	"bill",
	"policy",
	"government",
	"minister",
	"ministry",
	"opposition",
	"coalition",
	"alliance",
	"protest",
	"verdict",
	"probe",
	"scam",
	"sanction",
	"border",
	"treaty",
	"reservation",
	"constituency",
	"manifesto",
	"governance",
}

type Classifier struct {
	institutionalThreshold int
	governanceThreshold    int
	requireBoth            bool
}

type Option func(*Classifier)

// WithRequireBoth demands at least one hit in each tier instead of letting a
// single tier cross its threshold alone.
func WithRequireBoth() Option {
	return func(c *Classifier) {
		c.requireBoth = true
	}
}

func WithThresholds(institutional, governance int) Option {
	return func(c *Classifier) {
		c.institutionalThreshold = institutional
		c.governanceThreshold = governance
	}
}

func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		institutionalThreshold: 1,
		governanceThreshold:    2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify reports whether the text reads as politically relevant. It is a
// pure function over the keyword tiers: no I/O, no state.
func (c *Classifier) Classify(text string) bool {
	institutional, governance := c.Score(text)

	if c.requireBoth {
		return institutional >= 1 && governance >= 1
	}

	if institutional >= c.institutionalThreshold || governance >= c.governanceThreshold {
		return true
	}

	return institutional >= 1 && governance >= 1
}

// Score returns the raw per-tier match counts for the given text.
func (c *Classifier) Score(text string) (institutional, governance int) {
	normalized, tokens := normalize(text)

	institutional = countMatches(normalized, tokens, institutionalTerms)
	governance = countMatches(normalized, tokens, governanceTerms)
	return institutional, governance
}

func countMatches(normalized string, tokens map[string]bool, terms []string) int {
	count := 0
	for _, term := range terms {
		if strings.ContainsRune(term, ' ') || strings.ContainsRune(term, '-') {
			// Phrase keywords match as substrings of the normalized text.
			if strings.Contains(normalized, term) {
				count++
			}
			continue
		}
		// Single-token keywords match on word boundaries only.
		if tokens[term] {
			count++
		}
	}
	return count
}

var foldTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalize lowercases, strips diacritics and punctuation, and collapses
// whitespace. Returns the normalized text plus its token set.
func normalize(text string) (string, map[string]bool) {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	tokens := make(map[string]bool, len(fields))
	for _, f := range fields {
		tokens[f] = true
	}

	return strings.Join(fields, " "), tokens
}
