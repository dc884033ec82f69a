package chatbot

import (
	"fmt"
	"strconv"
	"strings"
)

// EntitySet carries the parameters extracted from a classified message.
type EntitySet struct {
	// MaxResults is the listing size for read commands.
	MaxResults int

	// Ordinals are 1-based references into the conversation window, in
	// order of appearance.
	Ordinals []int

	// All marks commands addressing every windowed email ("delete all").
	All bool

	// Sender and Subject are free-text filters ("from john", "about budget").
	Sender  string
	Subject string
}

// ExtractionError reports a reference that cannot be resolved without
// touching any collaborator.
type ExtractionError struct {
	Kind    ErrorKind
	Ordinal int
}

func (e *ExtractionError) Error() string {
	if e.Kind == ErrorOrdinalOutOfRange {
		return fmt.Sprintf("email reference %d is out of range", e.Ordinal)
	}
	return "no email reference found"
}

var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// NewExtractor creates an extractor with the listing defaults from config.
func NewExtractor(defaultMaxResults, maxResultsCeiling int) *Extractor {
	return &Extractor{
		defaultMax: defaultMaxResults,
		ceiling:    maxResultsCeiling,
	}
}

// Extractor pulls entity sets out of classified messages.
type Extractor struct {
	defaultMax int
	ceiling    int
}

// Extract parses the message for the parameters the intent needs, validating
// ordinal references against the current window size. It is deterministic
// and never calls a collaborator, so an out-of-range reference is rejected
// before any mailbox or model traffic happens.
func (e *Extractor) Extract(intent Intent, text string, windowLen int) (EntitySet, error) {
	tokens := tokenize(text)

	ents := EntitySet{}
	ents.Sender = captureFilter(tokens, []string{"from", "by"})
	ents.Subject = captureFilter(tokens, []string{"about", "regarding", "subject"})

	switch intent {
	case IntentRead:
		ents.MaxResults = e.defaultMax
		if n, ok := firstInteger(tokens); ok {
			ents.MaxResults = clamp(n, 1, e.ceiling)
		}
		return ents, nil

	case IntentDelete, IntentGenerateReply:
		ents.Ordinals = ordinals(tokens)
		ents.All = containsAny(tokens, []string{"all", "every", "each"})

		for _, ord := range ents.Ordinals {
			if ord < 1 || ord > windowLen {
				return EntitySet{}, &ExtractionError{Kind: ErrorOrdinalOutOfRange, Ordinal: ord}
			}
		}

		hasRef := len(ents.Ordinals) > 0 || ents.All || ents.Sender != "" || ents.Subject != ""

		if intent == IntentDelete {
			// Deletion needs an explicit target; "all" still needs a window
			// or a filter to address.
			if !hasRef || (ents.All && windowLen == 0 && ents.Sender == "" && ents.Subject == "") {
				return EntitySet{}, &ExtractionError{Kind: ErrorNoReference}
			}
			return ents, nil
		}

		// Reply generation with no reference covers the whole window when one
		// exists; with no window the dispatcher falls back to a fresh listing.
		if !hasRef && windowLen > 0 {
			ents.All = true
		}
		return ents, nil
	}

	return ents, nil
}

// ordinals collects explicit email references: bare integers anywhere, plus
// ordinal and number words next to a mail noun or action verb so counting
// phrases ("one more thing") are not misread as references.
func ordinals(tokens []string) []int {
	var out []int

	for i, tok := range tokens {
		if n, ok := parseInt(tok); ok {
			out = append(out, n)
			continue
		}

		if n, ok := ordinalWords[tok]; ok && referenceContext(tokens, i, true) {
			out = append(out, n)
			continue
		}
		if n, ok := numberWords[tok]; ok && referenceContext(tokens, i, false) {
			out = append(out, n)
		}
	}

	return out
}

// referenceContext reports whether the token at i is positioned like an email
// reference. Ordinal words ("first") also accept a verb or a trailing "one"
// as the anchor; number words only anchor on a mail noun.
func referenceContext(tokens []string, i int, ordinalWord bool) bool {
	for _, j := range []int{i - 1, i + 1} {
		if j < 0 || j >= len(tokens) || j == i {
			continue
		}
		tok := tokens[j]

		for _, noun := range mailNouns {
			if tok == noun {
				return true
			}
		}
		if tok == "number" {
			return true
		}
		if ordinalWord {
			if tok == "one" && j == i+1 {
				return true
			}
			for _, verbs := range [][]string{deleteWords, replyWords, readWords} {
				for _, v := range verbs {
					if tok == v {
						return true
					}
				}
			}
		}
	}
	return false
}

// captureFilter returns the phrase following the first marker token, cut at
// the next clause boundary. "delete the email from john about the budget"
// yields "john" for the from markers.
func captureFilter(tokens []string, markers []string) string {
	stops := map[string]bool{
		"from": true, "by": true, "about": true, "regarding": true,
		"subject": true, "and": true, "then": true, "please": true,
	}
	articles := map[string]bool{"the": true, "a": true, "an": true, "my": true}

	for i, tok := range tokens {
		if !containsAny([]string{tok}, markers) {
			continue
		}

		var captured []string
		for _, t := range tokens[i+1:] {
			if stops[t] {
				break
			}
			if len(captured) == 0 && articles[t] {
				continue
			}
			captured = append(captured, t)
		}

		if len(captured) == 0 {
			continue
		}
		return strings.Join(captured, " ")
	}

	return ""
}

func firstInteger(tokens []string) (int, bool) {
	for _, tok := range tokens {
		if n, ok := parseInt(tok); ok {
			return n, true
		}
	}
	return 0, false
}

// parseInt reads a token as an integer, tolerating trailing punctuation the
// tokenizer keeps for email addresses ("delete email 2.").
func parseInt(tok string) (int, bool) {
	n, err := strconv.Atoi(strings.Trim(tok, "."))
	if err != nil {
		return 0, false
	}
	return n, true
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
