package port

// Answerer generates a natural-language answer from a question and
// retrieved context passages. Used by the QA service surface only; the
// indexing and retrieval engine never calls it.
type Answerer interface {
	// Answer generates an answer. contexts may be empty for a
	// baseline (no retrieval) answer.
	Answer(question string, contexts []string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
