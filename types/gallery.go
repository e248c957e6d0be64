package types

// Piece is one archived canvas stored as a single gallery file.
// CreatedAt is ISO-8601 UTC; the file format is the contract the web/API
// layer depends on, so fields are JSON-tagged.
type Piece struct {
	Strokes      []Path `json:"strokes"`
	CreatedAt    string `json:"created_at"`
	PieceNumber  int    `json:"piece_number"`
	DrawingStyle string `json:"drawing_style"`
	Title        string `json:"title,omitempty"`
}

// PieceMeta is a metadata-only gallery listing entry. Stroke bodies are
// never loaded for a listing; StrokeCount stands in for them.
type PieceMeta struct {
	ID          string `json:"id"`
	CreatedAt   string `json:"created_at"`
	PieceNumber int    `json:"piece_number"`
	StrokeCount int    `json:"stroke_count"`
	Title       string `json:"title,omitempty"`
	// Thumb is an opaque thumbnail token for the web layer's cache.
	Thumb string `json:"thumbnail,omitempty"`
}
