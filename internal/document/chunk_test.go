package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDocType(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		text     string
		want     DocType
	}{
		{"resume by filename", "alice_resume.pdf", "some text", DocTypeResume},
		{"cv by filename", "bob_CV.docx", "some text", DocTypeResume},
		{"resume by content", "notes.txt", "Education and work Experience details", DocTypeResume},
		{"contract by filename", "employment_contract.pdf", "whereas", DocTypeContract},
		{"contract by content", "doc1.txt", "this agreement binds each party", DocTypeContract},
		{"review by filename", "q3_performance.txt", "numbers", DocTypeReview},
		{"review by content", "notes2.txt", "manager feedback and rating", DocTypeReview},
		{"general fallback", "shopping.txt", "milk eggs bread", DocTypeGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDocType(tt.filename, tt.text))
		})
	}
}

func TestChunkResumeSplitsOnSections(t *testing.T) {
	text := "Jane Doe\nSoftware Engineer\n" +
		"Education\nBSc Computer Science\n" +
		"Experience\nFive years at Initech\n" +
		"Skills\nGo, SQL, Python"

	chunks := chunkResume(text)

	require.Len(t, chunks, 4)
	assert.Contains(t, chunks[0], "Jane Doe")
	assert.Contains(t, chunks[1], "BSc Computer Science")
	assert.Contains(t, chunks[2], "Initech")
	assert.Contains(t, chunks[3], "Go, SQL, Python")
}

func TestChunkContractSplitsOnClauses(t *testing.T) {
	text := "Preamble text\n1. First clause body\n2. Second clause body\nSection 3 Third part"

	chunks := chunkContract(text)

	require.GreaterOrEqual(t, len(chunks), 3)
	assert.Contains(t, chunks[0], "Preamble")
}

func TestChunkReviewKeepsSubstantialParagraphs(t *testing.T) {
	long1 := strings.Repeat("Strong performance across all goals. ", 3)
	long2 := strings.Repeat("Needs improvement in communication skills. ", 3)
	text := long1 + "\n\nok\n\n" + long2

	chunks := chunkReview(text)

	require.Len(t, chunks, 2)
}

func TestChunkReviewFallsBackToWholeText(t *testing.T) {
	chunks := chunkReview("short")
	assert.Equal(t, []string{"short"}, chunks)
}

func TestChunkGeneralRespectsBudgetAndOverlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("This sentence has exactly seven words in it. ")
	}

	chunks := chunkGeneral(b.String(), ChunkerConfig{ChunkSize: 50, Overlap: 10})

	require.Greater(t, len(chunks), 1)

	// overlap: the first sentence of a later chunk repeats the tail of the
	// previous one
	assert.Contains(t, chunks[1], "This sentence has exactly seven words in it.")

	for _, c := range chunks {
		words := len(strings.Fields(c))
		assert.LessOrEqual(t, words, 60)
	}
}

func TestChunkGeneralSingleSentence(t *testing.T) {
	chunks := chunkGeneral("Just one short sentence.", ChunkerConfig{ChunkSize: 512, Overlap: 50})
	require.Len(t, chunks, 1)
	assert.Equal(t, "Just one short sentence.", chunks[0])
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First sentence. Second one! Third? Trailing fragment")
	assert.Equal(t, []string{
		"First sentence.", "Second one!", "Third?", "Trailing fragment",
	}, got)
}
