/*
Package markov builds second-order Markov chains from plain text and walks
them to produce pseudo-random text.

A chain maps every pair of adjacent words (a BigramKey) to the words observed
directly after that pair, in the order they were encountered. Duplicate
successors are kept, so a word that follows a pair three times is three times
as likely to be chosen during generation.

	chain := markov.BuildString("hi there mary hi there juanita")
	text, err := markov.NewGenerator(nil).Generate(ctx, chain)

Chains are read-only once built and may be shared by concurrent generators.
*/
package markov
