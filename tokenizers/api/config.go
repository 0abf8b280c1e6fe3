package api

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// TokensDecoder is one entry of "added_tokens_decoder" in tokenizer_config.json.
type TokensDecoder struct {
	Content    string `json:"content"`
	Lstrip     bool   `json:"lstrip"`
	Normalized bool   `json:"normalized"`
	Rstrip     bool   `json:"rstrip"`
	SingleWord bool   `json:"single_word"`
	Special    bool   `json:"special"`
}

// TokenString holds a special token as written in tokenizer_config.json: either a plain string
// ("<pad>") or an AddedToken object ({"content": "<pad>", ...}).
type TokenString string

// UnmarshalJSON implements json.Unmarshaler.
func (t *TokenString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = TokenString(s)
		return nil
	}
	var obj struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.Wrapf(err, "token must be a string or an object with \"content\", got %s", data)
	}
	*t = TokenString(obj.Content)
	return nil
}

// Config struct to hold HuggingFace's tokenizer_config.json contents.
// There is no formal schema for this file, but these are some common fields that may be of use.
// Specific tokenizer classes are free to implement additional features as they see fit.
//
// The extra field ConfigFile holds the path to the file with the full config, empty if the config
// was not read from a file.
type Config struct {
	ConfigFile     string
	TokenizerClass string `json:"tokenizer_class"`

	ModelMaxLength float64        `json:"model_max_length"`
	MaxLength      float64        `json:"max_length"`
	SpModelKwargs  map[string]any `json:"sp_model_kwargs"`

	ClsToken  TokenString `json:"cls_token"`
	UnkToken  TokenString `json:"unk_token"`
	SepToken  TokenString `json:"sep_token"`
	MaskToken TokenString `json:"mask_token"`
	BosToken  TokenString `json:"bos_token"`
	EosToken  TokenString `json:"eos_token"`
	PadToken  TokenString `json:"pad_token"`

	// PadTokenID is not part of the HuggingFace schema, but lets a config pin the pad id.
	PadTokenID *int `json:"pad_token_id"`

	// EncodingName selects the tiktoken encoding, e.g. "cl100k_base".
	EncodingName string `json:"encoding_name"`

	AddBosToken             bool                  `json:"add_bos_token"`
	AddEosToken             bool                  `json:"add_eos_token"`
	AddedTokensDecoder      map[int]TokensDecoder `json:"added_tokens_decoder"`
	AdditionalSpecialTokens []TokenString         `json:"additional_special_tokens"`

	DoLowerCase               bool `json:"do_lower_case"`
	CleanUpTokenizationSpaces bool `json:"clean_up_tokenization_spaces"`

	Stride             int    `json:"stride"`
	TruncationSide     string `json:"truncation_side"`
	TruncationStrategy string `json:"truncation_strategy"`
	PaddingSide        string `json:"padding_side"`
}

// ParseConfigFile parses the given file (holding a tokenizer_config.json file) into a Config structure.
func ParseConfigFile(filePath string) (*Config, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file %q", filePath)
	}
	config, err := ParseConfigContent(content)
	if err != nil {
		return nil, errors.WithMessagef(err, "read from file %q", filePath)
	}
	config.ConfigFile = filePath
	return config, nil
}

// ParseConfigContent parses the given json content (of a tokenizer_config.json file) into a Config structure.
func ParseConfigContent(jsonContent []byte) (*Config, error) {
	config := &Config{}
	err := json.Unmarshal(jsonContent, config)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse tokenizer_config json content")
	}
	return config, nil
}

// AddedTokenID returns the id registered for content in AddedTokensDecoder.
func (c *Config) AddedTokenID(content string) (int, bool) {
	if c == nil || content == "" {
		return 0, false
	}
	for id, dec := range c.AddedTokensDecoder {
		if dec.Content == content {
			return id, true
		}
	}
	return 0, false
}
