package api

// Well known file names of a tokenizer distribution.
const (
	FileTokenizerJSON      = "tokenizer.json"
	FileTokenizerConfig    = "tokenizer_config.json"
	FileSentencePieceModel = "tokenizer.model"
)

// FileSet maps a well known file name (e.g. FileTokenizerJSON) to its local path.
type FileSet map[string]string

// Path returns the local path for name, if present.
func (fs FileSet) Path(name string) (string, bool) {
	p, found := fs[name]
	return p, found && p != ""
}

// Has returns whether name is present.
func (fs FileSet) Has(name string) bool {
	_, found := fs.Path(name)
	return found
}
