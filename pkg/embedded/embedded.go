package embedded

import (
	_ "embed"
)

// GrammarTxt is the notation reference shown by the REPL and the grammar endpoint.
//
//go:embed data/grammar.txt
var GrammarTxt []byte
