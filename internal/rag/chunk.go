package rag

import "strings"

// maxChunkRunes caps one chunk so a single embedding request stays small.
const maxChunkRunes = 500

// chunkContent splits a requirement document into paragraph chunks. Blank
// lines separate paragraphs; oversized paragraphs are split at sentence-ish
// boundaries, and short neighbouring paragraphs are merged so the index does
// not fill with fragments.
func chunkContent(content string) []string {
	paragraphs := strings.Split(content, "\n\n")

	var chunks []string
	var pending string
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if pending != "" && runeLen(pending)+runeLen(p) <= maxChunkRunes {
			pending = pending + "\n" + p
			continue
		}
		if pending != "" {
			chunks = append(chunks, splitLong(pending)...)
		}
		pending = p
	}
	if pending != "" {
		chunks = append(chunks, splitLong(pending)...)
	}
	return chunks
}

func splitLong(chunk string) []string {
	if runeLen(chunk) <= maxChunkRunes {
		return []string{chunk}
	}

	var out []string
	var b strings.Builder
	for _, line := range strings.Split(chunk, "\n") {
		if b.Len() > 0 && runeLen(b.String())+runeLen(line) > maxChunkRunes {
			out = append(out, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}
