package domain

// Chunk is a word window cut from a document's extracted text.
type Chunk struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// VectorRecord is a chunk together with its embedding, as persisted in a vector store.
type VectorRecord struct {
	ID        string
	Source    string
	Index     int
	Text      string
	Embedding []float32
}

// ScoredChunk is a retrieval hit. Higher scores are nearer to the query.
type ScoredChunk struct {
	Chunk
	Source string  `json:"source,omitempty"`
	Score  float64 `json:"score"`
}

// Texts returns the chunk texts in order.
func Texts(chunks []ScoredChunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}
