// Package extractor reads COSMED CPET session exports from a directory
// and produces subject records.
//
// Each session file is an XML document carrying the subject identifier
// as element text under Subject/ID and the measured parameters as
// attributes on Parameter elements inside AdditionalData/Parameters.
// Parsing is token-streaming, so documents are never held as a DOM.
//
// Malformed files are a per-file condition, not a batch failure: the
// extractor records them on a side channel and continues, since one
// corrupt export should not block a clinical batch of dozens.
package extractor
