// Package textproc canonicalizes free text into tokens for the lexical indexes.
//
// Normalization lowercases, strips accents (NFD, nonspacing marks removed),
// strips ASCII punctuation, tokenizes on letter/digit runs and drops English
// stopwords. With a Lemmatizer configured, single-character tokens are also
// dropped and the rest are reduced to base forms:
//
//	n, err := textproc.NewFromConfig("lemma")
//	tokens := n.Normalize("The Café Owners were running")
//	// [cafe owner run]
//
// Lemmatization never fails a call: when tagging or lookup fails the surface
// tokens are returned.
package textproc
