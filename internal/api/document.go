package api

// DocumentContent is the structured output of a document processor:
// ordered text blocks plus any tables and images detected on the
// requested pages.
type DocumentContent struct {
	TextBlocks []string
	Tables     []Table
	Images     []Image
}

func (dc DocumentContent) Empty() bool {
	return len(dc.TextBlocks) == 0 && len(dc.Tables) == 0 && len(dc.Images) == 0
}

type Table struct {
	Header []string
	Rows   [][]string
}

// Image is an extracted document figure. Description is empty when the
// processor could not produce a usable description (page renders and
// similar artifacts), in which case the image never becomes a chunk.
type Image struct {
	Path        string
	Description string
}

type ScoredDocument struct {
	// Required
	Content string
	Score   float64

	// Optional
	ChunkID    string
	SourceType string
}
