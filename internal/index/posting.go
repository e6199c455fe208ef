package index

// Posting links a token to one document: the weighted term frequency and
// the strictly increasing positions of each occurrence.
type Posting struct {
	DocID     string `json:"doc_id"`
	Frequency int    `json:"frequency"`
	Positions []int  `json:"positions"`
}

// PostingList is kept sorted by DocID so multi-term queries can merge
// linearly and snapshots serialise identically across builds.
type PostingList []Posting

// DocumentEntry is the per-document metadata carried in a snapshot.
type DocumentEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	TokenCount  int    `json:"token_count"`
}
