package embedding

// ONNXConfig configures the ONNX Runtime embedder.
type ONNXConfig struct {
	ModelPath string
	// VocabPath is a WordPiece vocab.txt; when empty, the hash tokenizer is used.
	VocabPath string
	// LibraryPath overrides the onnxruntime shared library location.
	LibraryPath string
	// OutputName is the token-level hidden state output; defaults to last_hidden_state.
	OutputName string
	Dimensions int
	MaxTokens  int
}

func (c *ONNXConfig) applyDefaults() {
	if c.OutputName == "" {
		c.OutputName = "last_hidden_state"
	}
	if c.Dimensions <= 0 {
		c.Dimensions = 384
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 256
	}
}
