// Package tokenizers creates tokenizers from local tokenizer files.
//
// Given a path (see Load) or a repository in the local HuggingFace cache (see NewFromRepo), it
// uses "tokenizer_config.json", "tokenizer.json" and "tokenizer.model" to instantiate a Tokenizer
// from one of the registered classes.
package tokenizers

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/vtbh/tokenbridge/hub"
	"github.com/vtbh/tokenbridge/internal/files"
	"github.com/vtbh/tokenbridge/tokenizers/api"
	"github.com/vtbh/tokenbridge/tokenizers/hftokenizer"
	"github.com/vtbh/tokenbridge/tokenizers/sentencepiece"
	"github.com/vtbh/tokenbridge/tokenizers/tiktoken"
)

// Tokenizer interface allows one to convert text to "tokens" (integer ids) and back.
//
// It also allows mapping of special tokens: tokens with a common semantic (like padding) but that
// may map to different ids (int) for different tokenizers.
type Tokenizer = api.Tokenizer

// SpecialToken is an enum of commonly used special tokens.
type SpecialToken = api.SpecialToken

const (
	TokBeginningOfSentence = api.TokBeginningOfSentence
	TokEndOfSentence       = api.TokEndOfSentence
	TokUnknown             = api.TokUnknown
	TokPad                 = api.TokPad
	TokMask                = api.TokMask
	TokClassification      = api.TokClassification
	TokSpecialTokensCount  = api.TokSpecialTokensCount
)

// Config struct to hold HuggingFace's tokenizer_config.json contents.
type Config = api.Config

// Names of the built-in classes that are not HuggingFace tokenizer classes.
const (
	ClassHFTokenizer   = "HFTokenizer"
	ClassSentencePiece = "SentencePiece"
	ClassTiktoken      = "TiktokenTokenizer"
)

// TokenizerConstructor is used by Tokenizer implementations to provide implementations for different
// tokenizer classes.
type TokenizerConstructor func(config *api.Config, files api.FileSet) (api.Tokenizer, error)

// RegisterTokenizerClass used by Tokenizer implementations.
// Registering a name twice replaces the previous constructor.
func RegisterTokenizerClass(name string, constructor TokenizerConstructor) {
	registerOfClasses[name] = constructor
}

var (
	registerOfClasses = make(map[string]TokenizerConstructor)
)

func init() {
	RegisterTokenizerClass(ClassHFTokenizer, hftokenizer.New)
	RegisterTokenizerClass("PreTrainedTokenizerFast", hftokenizer.New)

	for _, className := range []string{
		ClassSentencePiece, "GemmaTokenizer", "LlamaTokenizer", "T5Tokenizer", "AlbertTokenizer",
		"XLMRobertaTokenizer", "CamembertTokenizer"} {
		RegisterTokenizerClass(className, sentencepiece.New)
	}

	RegisterTokenizerClass(ClassTiktoken, tiktoken.New)
}

// Loaded is a Tokenizer together with where it came from.
type Loaded struct {
	Tokenizer api.Tokenizer

	// Config is the parsed tokenizer_config.json, or an empty Config if there was none.
	Config *api.Config

	// Class is the registered class used to build the Tokenizer.
	Class string

	// File is the main file read: tokenizer.json, tokenizer.model or, for classes that need no
	// file of their own, tokenizer_config.json.
	File string

	// Size of File in bytes.
	Size int64
}

// Load creates a Tokenizer from path, which can be:
//
//   - a directory holding tokenizer.json, tokenizer.model and/or tokenizer_config.json;
//   - a tokenizer_config.json file, resolved as its directory;
//   - any other ".json" file, taken as a HuggingFace tokenizer.json;
//   - a ".model" file, taken as a SentencePiece model.
//
// A tokenizer_config.json next to a given file is parsed too.
func Load(path string) (*Loaded, error) {
	expanded, err := files.ReplaceTildeInDir(path)
	if err != nil {
		return nil, err
	}
	fileSet, err := resolveFileSet(expanded)
	if err != nil {
		return nil, err
	}
	return NewFromFiles(fileSet)
}

// NewFromRepo creates a Tokenizer from the files of a repository already in the local HuggingFace
// cache (see hub.New).
func NewFromRepo(repo *hub.Repo) (*Loaded, error) {
	fileSet := make(api.FileSet)
	for _, name := range []string{api.FileTokenizerConfig, api.FileTokenizerJSON, api.FileSentencePieceModel} {
		if !repo.HasFile(name) {
			continue
		}
		localPath, err := repo.LocalFile(name)
		if err != nil {
			return nil, err
		}
		fileSet[name] = localPath
	}
	if len(fileSet) == 0 {
		return nil, errors.Errorf("no tokenizer files for %q found in the cache at revision %q", repo, repo.Revision())
	}
	loaded, err := NewFromFiles(fileSet)
	if err != nil {
		return nil, errors.WithMessagef(err, "repo %q", repo)
	}
	return loaded, nil
}

// GetConfig returns the parsed "tokenizer_config.json" Config object for the repo.
func GetConfig(repo *hub.Repo) (*api.Config, error) {
	localConfigFile, err := repo.LocalFile(api.FileTokenizerConfig)
	if err != nil {
		return nil, err
	}
	return api.ParseConfigFile(localConfigFile) // tokenizer_config.json
}

// NewFromFiles creates a Tokenizer from an already resolved set of files.
func NewFromFiles(fileSet api.FileSet) (*Loaded, error) {
	config := &api.Config{}
	if configFile, found := fileSet.Path(api.FileTokenizerConfig); found {
		var err error
		config, err = api.ParseConfigFile(configFile)
		if err != nil {
			return nil, err
		}
	}

	className, mainFile, err := chooseClass(config, fileSet)
	if err != nil {
		return nil, err
	}
	constructor := registerOfClasses[className]
	tok, err := constructor(config, fileSet)
	if err != nil {
		return nil, errors.WithMessagef(err, "tokenizer class %q", className)
	}
	size, err := files.Size(mainFile)
	if err != nil {
		return nil, err
	}
	return &Loaded{
		Tokenizer: tok,
		Config:    config,
		Class:     className,
		File:      mainFile,
		Size:      size,
	}, nil
}

// chooseClass picks the class to build and the main file it reads.
// A tokenizer.json always wins, since it fully describes the tokenizer pipeline.
func chooseClass(config *api.Config, fileSet api.FileSet) (className, mainFile string, err error) {
	if p, found := fileSet.Path(api.FileTokenizerJSON); found {
		return ClassHFTokenizer, p, nil
	}
	if config.TokenizerClass != "" {
		if _, found := registerOfClasses[config.TokenizerClass]; !found {
			return "", "", errors.Errorf("unknown tokenizer class %q in %q", config.TokenizerClass, config.ConfigFile)
		}
		if p, found := fileSet.Path(api.FileSentencePieceModel); found {
			return config.TokenizerClass, p, nil
		}
		return config.TokenizerClass, config.ConfigFile, nil
	}
	if p, found := fileSet.Path(api.FileSentencePieceModel); found {
		return ClassSentencePiece, p, nil
	}
	return "", "", errors.Errorf("no %q, %q or tokenizer class in %q found",
		api.FileTokenizerJSON, api.FileSentencePieceModel, api.FileTokenizerConfig)
}

// resolveFileSet maps path (file or directory) to the set of tokenizer files it refers to.
func resolveFileSet(path string) (api.FileSet, error) {
	if !files.Exists(path) {
		return nil, errors.Errorf("tokenizer path %q does not exist", path)
	}
	fileSet := make(api.FileSet)
	dir := path
	if !files.IsDir(path) {
		dir = filepath.Dir(path)
		base := filepath.Base(path)
		switch {
		case base == api.FileTokenizerConfig:
			// Resolved as its directory below.
		case strings.EqualFold(filepath.Ext(base), ".json"):
			fileSet[api.FileTokenizerJSON] = path
		case strings.EqualFold(filepath.Ext(base), ".model"):
			fileSet[api.FileSentencePieceModel] = path
		default:
			return nil, errors.Errorf("unsupported tokenizer file %q: want a .json or .model file", path)
		}
		if len(fileSet) > 0 {
			// Only the sibling config is picked up for an explicit file.
			if configFile := filepath.Join(dir, api.FileTokenizerConfig); files.Exists(configFile) {
				fileSet[api.FileTokenizerConfig] = configFile
			}
			return fileSet, nil
		}
	}
	for _, name := range []string{api.FileTokenizerConfig, api.FileTokenizerJSON, api.FileSentencePieceModel} {
		if p := filepath.Join(dir, name); files.Exists(p) {
			fileSet[name] = p
		}
	}
	if len(fileSet) == 0 {
		return nil, errors.Errorf("no tokenizer files found in %q", dir)
	}
	return fileSet, nil
}

// PadTokenID returns the pad token id defined by the loaded configuration, in order:
//
//  1. "pad_token_id" in tokenizer_config.json;
//  2. the tokenizer's own PAD special token (e.g. the padding section of tokenizer.json, or the
//     pad id of a SentencePiece model);
//  3. "pad_token" of tokenizer_config.json looked up in the vocabulary or in "added_tokens_decoder".
//
// It returns an error if none of them defines it.
func (l *Loaded) PadTokenID() (int, error) {
	if l.Config.PadTokenID != nil {
		return *l.Config.PadTokenID, nil
	}
	if id, err := l.Tokenizer.SpecialTokenID(api.TokPad); err == nil {
		return id, nil
	}
	padToken := string(l.Config.PadToken)
	if vocab, ok := l.Tokenizer.(api.Vocabulary); ok {
		if id, found := vocab.TokenID(padToken); found {
			return id, nil
		}
	}
	if id, found := l.Config.AddedTokenID(padToken); found {
		return id, nil
	}
	return 0, errors.Errorf("no pad token defined by %q (class %s)", l.File, l.Class)
}
