package discord

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"fundrag/backend/internal/agent"
	"fundrag/backend/internal/knowledge"
)

// formatReply renders a pipeline result as a Discord message. Without a
// generated answer the assembled context is shown as a code block.
func formatReply(res *agent.Result) string {
	var b strings.Builder

	switch {
	case res.Answer != "":
		b.WriteString(res.Answer)
	case res.Context != "":
		b.WriteString("```\n" + res.Context + "\n```")
	default:
		return "I couldn't find anything to say about that."
	}

	if res.Generated && res.Explanation != "" {
		b.WriteString("\n\n> ")
		b.WriteString(res.Explanation)
	}
	if line := riskLine(res.RiskBreakdown); line != "" {
		b.WriteString("\n\n")
		b.WriteString(line)
	}
	return b.String()
}

// riskLine renders the per-risk fund counts, known levels first
func riskLine(breakdown map[string]int) string {
	if len(breakdown) == 0 {
		return ""
	}

	var parts []string
	seen := make(map[string]bool, len(breakdown))
	for _, level := range knowledge.RiskLevels {
		if n, ok := breakdown[string(level)]; ok {
			parts = append(parts, fmt.Sprintf("%s %d", level, n))
			seen[string(level)] = true
		}
	}
	var rest []string
	for level := range breakdown {
		if !seen[level] {
			rest = append(rest, level)
		}
	}
	sort.Strings(rest)
	for _, level := range rest {
		name := level
		if name == "" {
			name = "Unrated"
		}
		parts = append(parts, fmt.Sprintf("%s %d", name, breakdown[level]))
	}
	return "**Risk breakdown:** " + strings.Join(parts, ", ")
}

// splitMessage breaks content into chunks of at most maxLength characters,
// preferring line boundaries. A code block cut by a split is closed and
// reopened so each chunk renders on its own. Limits too small to hold a
// reopened code block leave content whole.
func splitMessage(content string, maxLength int) []string {
	const fence = "```"
	// a reopened code block chunk needs room for both fences and one rune
	if utf8.RuneCountInString(content) <= maxLength || maxLength <= 2*len(fence)+2 {
		return []string{content}
	}

	// every chunk keeps room for a closing fence
	limit := maxLength - len(fence) - 1

	var (
		chunks      []string
		current     strings.Builder
		size        int    // runes in current
		fresh       = true // current holds nothing but a reopened fence
		inCodeBlock bool
	)

	write := func(s string) {
		if size > 0 {
			current.WriteString("\n")
			size++
		}
		current.WriteString(s)
		size += utf8.RuneCountInString(s)
		fresh = false
	}
	flush := func() {
		text := current.String()
		if inCodeBlock {
			text += "\n" + fence
		}
		chunks = append(chunks, text)
		current.Reset()
		size = 0
		fresh = true
		if inCodeBlock {
			current.WriteString(fence)
			size = len(fence)
		}
	}

	for _, line := range strings.Split(content, "\n") {
		isFence := strings.HasPrefix(strings.TrimSpace(line), fence)

		for {
			free := limit - size
			if size > 0 {
				free--
			}
			n := utf8.RuneCountInString(line)
			if n <= free {
				break
			}
			capacity := limit
			if inCodeBlock {
				capacity -= len(fence) + 1
			}
			if !fresh && (n <= capacity || free <= 0) {
				flush()
				continue
			}
			// Longer than a whole chunk: fill this one and carry the rest
			head, tail := splitRunes(line, free)
			write(head)
			flush()
			line = tail
		}

		write(line)
		if isFence {
			inCodeBlock = !inCodeBlock
		}
	}
	if !fresh {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func splitRunes(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}
