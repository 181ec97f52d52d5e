package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/veridoc/veridoc/model"
)

var (
	spaceRuns      = regexp.MustCompile(` +`)
	newlineRuns    = regexp.MustCompile(`\n{3,}`)
	paragraphBreak = regexp.MustCompile(`\n\n+`)
	sentenceStart  = regexp.MustCompile(`\.\s+`)
	pageMarker     = regexp.MustCompile(`\n\n---\s*Page\s+(\d+)\s*---\n\n`)
)

// ChunkConfig controls chunk sizing. All sizes are in characters,
// with 2000 characters corresponding to roughly 512 tokens.
type ChunkConfig struct {
	TargetSize int // upper bound a chunk aims for
	Overlap    int // tail of the previous chunk carried into the next
	MinSize    int // chunks below this are dropped unless they end a page
}

// DefaultChunkConfig returns the chunk sizes used for building compliance documents
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		TargetSize: 2000,
		Overlap:    500,
		MinSize:    200,
	}
}

func (c ChunkConfig) validate() error {
	if c.TargetSize <= 0 {
		return fmt.Errorf("chunk target size must be positive")
	}
	if c.Overlap < 0 {
		return fmt.Errorf("chunk overlap must not be negative")
	}
	if c.Overlap >= c.TargetSize {
		return fmt.Errorf("chunk overlap must be smaller than target size")
	}
	if c.MinSize < 0 {
		return fmt.Errorf("minimum chunk size must not be negative")
	}
	return nil
}

// ParagraphChunker creates a chunker that accumulates paragraphs into
// overlapping chunks of at most roughly the configured target size.
// Paragraphs longer than the target size are split on sentence boundaries,
// single sentences longer than the target size at fixed character offsets.
func ParagraphChunker(config ChunkConfig) ChunkFunc {
	return func(text string) ([]model.Chunk, error) {
		if err := config.validate(); err != nil {
			return nil, err
		}

		// Handle empty or whitespace-only text
		if strings.TrimSpace(text) == "" {
			return []model.Chunk{}, nil
		}

		chunks := chunkPage(text, config)
		numberChunks(chunks)
		return chunks, nil
	}
}

// PageAwareChunker creates a chunker that splits extracted text on page
// markers of the form "--- Page N ---" first and chunks each page on its
// own. Text before the first marker becomes page 0, text without any
// markers page 1. Chunk numbering is global across pages, char offsets
// are relative to the start of the chunk's page.
func PageAwareChunker(config ChunkConfig) ChunkFunc {
	return func(text string) ([]model.Chunk, error) {
		if err := config.validate(); err != nil {
			return nil, err
		}

		if strings.TrimSpace(text) == "" {
			return []model.Chunk{}, nil
		}

		var chunks []model.Chunk
		for _, page := range splitPages(text) {
			number := page.number
			pageChunks := chunkPage(page.text, config)
			for i := range pageChunks {
				pageChunks[i].PageNumber = &number
			}
			chunks = append(chunks, pageChunks...)
		}

		numberChunks(chunks)
		return chunks, nil
	}
}

// numberChunks assigns contiguous sequence indexes and the total count
func numberChunks(chunks []model.Chunk) {
	for i := range chunks {
		chunks[i].SequenceIndex = i
		chunks[i].TotalChunks = len(chunks)
	}
}

type pageText struct {
	number int
	text   string
}

// splitPages splits raw extracted text on page markers. Text before the
// first marker is usually a title block and is kept as page 0.
func splitPages(text string) []pageText {
	matches := pageMarker.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []pageText{{number: 1, text: text}}
	}

	var pages []pageText
	if preamble := strings.TrimSpace(text[:matches[0][0]]); preamble != "" {
		pages = append(pages, pageText{number: 0, text: preamble})
	}
	for i, match := range matches {
		number, err := strconv.Atoi(text[match[2]:match[3]])
		if err != nil {
			continue
		}
		begin, end := match[1], len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		pages = append(pages, pageText{number: number, text: strings.TrimSpace(text[begin:end])})
	}
	return pages
}

// chunkPage chunks the text of a single page. Sequence indexes and page
// numbers are left for the caller to fill in.
func chunkPage(text string, config ChunkConfig) []model.Chunk {
	normalized := normalizeText(text)
	if normalized == "" {
		return nil
	}

	builder := &chunkBuilder{config: config}
	for _, paragraph := range splitParagraphs(normalized) {
		builder.addParagraph(paragraph)
	}
	builder.flush()

	// Undersized chunks are dropped, except a trailing chunk so the end
	// of a page is never lost.
	kept := builder.chunks[:0]
	for i, chunk := range builder.chunks {
		if len(chunk.Text) >= config.MinSize || i == len(builder.chunks)-1 {
			kept = append(kept, chunk)
		}
	}
	return kept
}

// normalizeText collapses runs of spaces and caps consecutive newlines
// at one blank line
func normalizeText(text string) string {
	text = spaceRuns.ReplaceAllString(text, " ")
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, paragraph := range paragraphBreak.Split(text, -1) {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph != "" {
			paragraphs = append(paragraphs, paragraph)
		}
	}
	return paragraphs
}

// splitSentences splits on whitespace following sentence-ending punctuation.
// The regexp package has no lookbehind, so the scan is manual.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		j := i + 1
		for j < len(text) && isSpace(text[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		sentences = append(sentences, text[start:i+1])
		start = j
		i = j - 1
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// overlapTail returns the last overlap characters of text, moved forward
// to the next sentence boundary so the next chunk does not start mid-sentence
func overlapTail(text string, overlap int) string {
	if len(text) <= overlap {
		return text
	}

	tail := text[len(text)-overlap:]
	if loc := sentenceStart.FindStringIndex(tail); loc != nil {
		tail = tail[loc[1]:]
	}
	return tail
}

// chunkBuilder accumulates paragraphs and sentences into chunks, carrying
// an overlap tail from each emitted chunk into the next. Char offsets
// locate each chunk in the normalized page text; overlapping chunks have
// overlapping offset ranges.
type chunkBuilder struct {
	config ChunkConfig
	chunks []model.Chunk
	buf    string
	start  int // offset of buf within the page text
}

func (b *chunkBuilder) addParagraph(paragraph string) {
	// An oversized paragraph closes the running buffer and is split on its own
	if len(paragraph) > b.config.TargetSize {
		b.flush()
		b.splitOversized(paragraph)
		return
	}

	// Adding this paragraph would exceed the target size, emit first
	if b.buf != "" && len(b.buf)+len(paragraph) > b.config.TargetSize {
		b.flushWithOverlap()
	}

	if b.buf == "" {
		b.buf = paragraph
	} else {
		b.buf += "\n\n" + paragraph
	}
}

// splitOversized splits a paragraph longer than the target size on
// sentence boundaries, using the same accumulate and overlap logic.
// The trailing remainder stays buffered so following paragraphs can
// still join it.
func (b *chunkBuilder) splitOversized(paragraph string) {
	for _, sentence := range splitSentences(paragraph) {
		if len(b.buf)+len(sentence) > b.config.TargetSize {
			if b.buf != "" {
				b.flushWithOverlap()
			}
			if len(sentence) > b.config.TargetSize {
				b.hardSplit(sentence)
			} else if b.buf == "" {
				b.buf = sentence
			} else {
				b.buf += " " + sentence
			}
		} else if b.buf == "" {
			b.buf = sentence
		} else {
			b.buf += " " + sentence
		}
	}
}

// hardSplit cuts a single sentence longer than the target size at fixed
// offsets with raw character overlap. Any buffered overlap tail is
// replaced by the split remainder, which stays buffered.
func (b *chunkBuilder) hardSplit(sentence string) {
	base := b.start + len(b.buf)
	step := b.config.TargetSize - b.config.Overlap

	begin := 0
	for begin+b.config.TargetSize < len(sentence) {
		b.emit(sentence[begin:begin+b.config.TargetSize], base+begin)
		begin += step
	}
	b.buf = sentence[begin:]
	b.start = base + begin
}

// flush emits the buffer as a chunk and starts the next one directly after it
func (b *chunkBuilder) flush() {
	text := strings.TrimSpace(b.buf)
	if text == "" {
		b.buf = ""
		return
	}
	b.emit(text, b.start)
	b.start += len(b.buf)
	b.buf = ""
}

// flushWithOverlap emits the buffer as a chunk and reseeds it with the
// overlap tail of the emitted text
func (b *chunkBuilder) flushWithOverlap() {
	text := strings.TrimSpace(b.buf)
	if text == "" {
		b.buf = ""
		return
	}
	b.emit(text, b.start)

	tail := overlapTail(text, b.config.Overlap)
	b.start += len(text) - len(tail)
	b.buf = tail
}

func (b *chunkBuilder) emit(text string, start int) {
	b.chunks = append(b.chunks, model.Chunk{
		Text:      text,
		CharStart: start,
		CharEnd:   start + len(text),
	})
}
