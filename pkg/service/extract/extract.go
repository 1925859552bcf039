package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Importance grades how worth remembering a user message is
type Importance string

const (
	ImportanceNone   Importance = "none"
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

const (
	factTitleLength     = 50
	exchangeTitleLength = 40
	minFactLength       = 10
)

var (
	saveCues = []string{"remember", "save", "store", "keep in mind", "note"}

	highKeywords = []string{
		"prefer", "like", "love", "hate", "dislike", "always", "never",
		"important", "critical", "must", "required", "need", "want",
		"remember", "note", "save", "store", "keep in mind",
	}
	mediumKeywords = []string{
		"usually", "often", "sometimes", "typically", "generally",
		"working on", "building", "creating", "developing",
		"use", "using", "utilize", "employ",
	}

	factPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:I|we|user|team)\s+(?:am|is|are)\s+[^.!?\n]+`),
		regexp.MustCompile(`(?i)\b(?:I|we|user|team)\s+(?:prefer|like|love|use|need)\s+[^.!?\n]+`),
		regexp.MustCompile(`(?i)\b(?:my|our|the)\s+(?:name|email|phone|address|company)\s+(?:is|are)\s+[^.!?\n]+`),
		regexp.MustCompile(`(?i)\b(?:I|we)\s+(?:work|working|build|building|develop|developing)\s+(?:on|with|in)\s+[^.!?\n]+`),
	}

	tagRules = []struct {
		tag   string
		words []string
	}{
		{"preference", []string{"prefer", "like", "love", "favorite"}},
		{"project", []string{"building", "working", "developing", "creating"}},
		{"programming", []string{"python", "javascript", "java", "golang", "code", "programming"}},
		{"design", []string{"design", "ui", "ux", "interface", "layout"}},
		{"backend", []string{"api", "backend", "server", "database"}},
		{"frontend", []string{"frontend", "react", "vue", "angular"}},
		{"team", []string{"team", "colleague", "member", "collaborate"}},
		{"important", []string{"important", "critical", "must", "required"}},
	}
)

// Candidate is a memory proposed from a conversation exchange
type Candidate struct {
	Title      string
	Content    string
	Tags       []string
	Source     string
	Importance Importance
	Score      float64
}

// Classify grades userMessage. Explicit save cues and strong preference
// words are high; everything else is graded by keywords and length.
func Classify(userMessage string) Importance {
	lower := strings.ToLower(userMessage)
	if containsAny(lower, saveCues) || containsAny(lower, highKeywords) {
		return ImportanceHigh
	}
	if containsAny(lower, mediumKeywords) {
		return ImportanceMedium
	}
	for _, p := range factPatterns {
		if p.MatchString(userMessage) {
			return ImportanceMedium
		}
	}

	words := len(strings.Fields(userMessage))
	switch {
	case words > 10:
		return ImportanceMedium
	case words > 3:
		return ImportanceLow
	default:
		return ImportanceNone
	}
}

// Extract proposes memories from one exchange. Only high importance
// messages produce candidates: one per factual statement in the user
// message and one holding the whole exchange.
func Extract(userMessage, reply string) []Candidate {
	importance := Classify(userMessage)
	if importance != ImportanceHigh {
		return nil
	}

	var candidates []Candidate
	for _, fact := range Facts(userMessage) {
		candidates = append(candidates, Candidate{
			Title:      truncate(fact, factTitleLength),
			Content:    fact,
			Tags:       Tags(fact),
			Source:     "user",
			Importance: importance,
			Score:      Score(fact),
		})
	}

	exchange := "User: " + userMessage + "\n\nAssistant: " + reply
	candidates = append(candidates, Candidate{
		Title:      "Important: " + truncate(userMessage, exchangeTitleLength),
		Content:    exchange,
		Tags:       append(Tags(userMessage+" "+reply), "full-exchange", "high-importance"),
		Source:     "exchange",
		Importance: importance,
		Score:      Score(userMessage),
	})
	return candidates
}

// Facts returns the distinct factual statements found in text
func Facts(text string) []string {
	var facts []string
	seen := make(map[string]struct{})
	for _, p := range factPatterns {
		for _, m := range p.FindAllString(text, -1) {
			m = strings.TrimSpace(m)
			if len(m) <= minFactLength {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			facts = append(facts, m)
		}
	}
	return facts
}

// Tags derives category tags from text, "general" when nothing matches
func Tags(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}

	var tags []string
	for _, rule := range tagRules {
		for _, w := range rule.words {
			if _, ok := set[w]; ok {
				tags = append(tags, rule.tag)
				break
			}
		}
	}
	if len(tags) == 0 {
		tags = []string{"general"}
	}
	return tags
}

// Score rates text between 0 and 1
func Score(text string) float64 {
	score := 0.5
	lower := strings.ToLower(text)

	for _, k := range highKeywords {
		if strings.Contains(lower, k) {
			score += 0.1
		}
	}
	if containsAny(lower, []string{"remember", "save", "important"}) {
		score += 0.2
	}
	for _, p := range factPatterns {
		if p.MatchString(text) {
			score += 0.1
			break
		}
	}

	switch words := len(strings.Fields(text)); {
	case words > 50:
		score += 0.1
	case words > 20:
		score += 0.05
	}

	if score > 1 {
		return 1
	}
	return score
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
