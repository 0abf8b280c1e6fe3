// Package tokenbridge only holds the version of the set of tools that expose HuggingFace-style
// tokenizers to a mobile frontend as fixed-shape tensors.
//
// The main sub-packages are:
//
//   - encoder: the fixed-shape encoder, padding and truncating token ids to a target length.
//   - tokenizers: loads tokenizer files (tokenizer.json, SentencePiece models, tiktoken encodings)
//     behind one capability interface.
//   - hub: resolves tokenizer files from a local HuggingFace cache.
//   - mobile: the host boundary, with opaque handles and gomobile-friendly signatures.
package tokenbridge

// Version of the library.
// Manually kept in sync with project releases.
var Version = "v0.0.0-dev"
