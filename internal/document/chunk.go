package document

import (
	"regexp"
	"strings"
)

// DocType selects the chunking strategy for a document
type DocType string

const (
	DocTypeResume   DocType = "resume"
	DocTypeContract DocType = "contract"
	DocTypeReview   DocType = "review"
	DocTypeGeneral  DocType = "general"
)

var (
	resumeFilenameTerms = []string{"resume", "cv"}
	resumeTextTerms     = []string{"education", "experience", "skills", "qualifications"}
	contractTextTerms   = []string{"agreement", "terms and conditions", "party", "clause"}
	reviewFilenameTerms = []string{"review", "evaluation", "performance"}
	reviewTextTerms     = []string{"performance", "rating", "feedback", "evaluation"}
)

// DetectDocType infers the document type from the filename and extracted
// text. Resumes keep their sections together, contracts split on clause
// boundaries, reviews on paragraphs; everything else gets sliding-window
// chunking.
func DetectDocType(filename, text string) DocType {
	filenameLower := strings.ToLower(filename)
	textLower := strings.ToLower(text)

	if containsAnyTerm(filenameLower, resumeFilenameTerms) ||
		containsAnyTerm(textLower, resumeTextTerms) {
		return DocTypeResume
	}

	if strings.Contains(filenameLower, "contract") ||
		containsAnyTerm(textLower, contractTextTerms) {
		return DocTypeContract
	}

	if containsAnyTerm(filenameLower, reviewFilenameTerms) ||
		containsAnyTerm(textLower, reviewTextTerms) {
		return DocTypeReview
	}

	return DocTypeGeneral
}

func containsAnyTerm(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}

	return false
}

// ChunkerConfig bounds the sliding-window strategy. Sizes are in words.
type ChunkerConfig struct {
	ChunkSize int
	Overlap   int
}

// Chunk splits text using the strategy for the document type. Always returns
// at least one chunk for non-empty text.
func Chunk(text string, docType DocType, cfg ChunkerConfig) []string {
	switch docType {
	case DocTypeResume:
		return chunkResume(text)
	case DocTypeContract:
		return chunkContract(text)
	case DocTypeReview:
		return chunkReview(text)
	default:
		return chunkGeneral(text, cfg)
	}
}

var resumeSectionHeaders = []string{
	"education", "experience", "skills", "work experience",
	"professional experience", "certifications", "projects",
	"summary", "objective", "qualifications",
}

// chunkResume starts a new chunk at each recognized section header so a
// section is never split across chunks
func chunkResume(text string) []string {
	var (
		chunks  []string
		current []string
	)

	for _, line := range strings.Split(text, "\n") {
		lineLower := strings.ToLower(strings.TrimSpace(line))

		isHeader := containsAnyTerm(lineLower, resumeSectionHeaders)
		if isHeader && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = []string{line}
		} else {
			current = append(current, line)
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}

	if len(chunks) == 0 {
		return []string{text}
	}

	return chunks
}

var clauseBoundaryRe = regexp.MustCompile(`(?:^|\n)(?:\d+\.|Article \d+|Section \d+|Clause \d+)`)

func chunkContract(text string) []string {
	parts := clauseBoundaryRe.Split(text, -1)

	var chunks []string

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			chunks = append(chunks, p)
		}
	}

	if len(chunks) == 0 {
		return []string{text}
	}

	return chunks
}

const reviewMinParagraphLen = 50

// chunkReview keeps paragraphs intact, dropping trivial fragments
func chunkReview(text string) []string {
	var chunks []string

	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); len(p) > reviewMinParagraphLen {
			chunks = append(chunks, p)
		}
	}

	if len(chunks) == 0 {
		return []string{text}
	}

	return chunks
}

var sentenceBoundaryRe = regexp.MustCompile(`(?:[.!?])\s+`)

// chunkGeneral builds word-budgeted chunks at sentence boundaries, carrying
// the trailing sentences of each chunk into the next for overlap
func chunkGeneral(text string, cfg ChunkerConfig) []string {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 512
	}

	sentences := splitSentences(text)

	var (
		chunks  []string
		current []string
		length  int
	)

	for _, sentence := range sentences {
		words := len(strings.Fields(sentence))

		if length+words > cfg.ChunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))

			var (
				overlap    []string
				overlapLen int
			)

			for i := len(current) - 1; i >= 0; i-- {
				w := len(strings.Fields(current[i]))
				if overlapLen+w > cfg.Overlap {
					break
				}

				overlap = append([]string{current[i]}, overlap...)
				overlapLen += w
			}

			current = append(overlap, sentence)
			length = overlapLen + words
		} else {
			current = append(current, sentence)
			length += words
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	if len(chunks) == 0 {
		return []string{text}
	}

	return chunks
}

// splitSentences breaks text after sentence-ending punctuation, keeping the
// punctuation with the preceding sentence
func splitSentences(text string) []string {
	locs := sentenceBoundaryRe.FindAllStringIndex(text, -1)

	var (
		sentences []string
		start     int
	)

	for _, loc := range locs {
		// loc[0]+1 keeps the terminator with the sentence
		sentences = append(sentences, strings.TrimSpace(text[start:loc[0]+1]))
		start = loc[1]
	}

	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}

	return sentences
}
