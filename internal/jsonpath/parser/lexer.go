package parser

import "github.com/arnodel/grammar"

// TokeniseJsonPathString splits a path expression into tokens. Filter,
// function and comparison syntax is deliberately absent, so such
// expressions fail here rather than in evaluation.
var TokeniseJsonPathString = grammar.SimpleTokeniser([]grammar.TokenDef{
	{
		Ptn: `\s+`,
	},
	{
		Name: "descendantmembernameshorthand",
		Ptn:  `\.\.[a-zA-Z_\x80-\x{D7FF}\x{E000}-\x{10FFFF}][0-9a-zA-Z_\x80-\x{D7FF}\x{E000}-\x{10FFFF}]*`,
	},
	{
		Name: "membernameshorthand",
		Ptn:  `\.[a-zA-Z_\x80-\x{D7FF}\x{E000}-\x{10FFFF}][0-9a-zA-Z_\x80-\x{D7FF}\x{E000}-\x{10FFFF}]*`,
	},
	{
		Name: "op",
		Ptn:  `\.\.[*[]|\.\*|[$*:[\],]`,
	},
	{
		Name: "int",
		Ptn:  `(?:0|-?[1-9][0-9]*)(?:[^.e0-9]|$)`,
		Special: func(input string) string {
			i := 0
			if input[i] == '-' {
				i++
			}
			for ; i < len(input); i++ {
				if input[i] > '9' || input[i] < '0' {
					break
				}
			}
			return input[:i]
		},
	},
	{
		Name: "doublequotedstring",
		Ptn:  `"(?:\\[bfnrt/\\"]|\\u[0-9A-Fa-f]{4}|[\x20-\x21\x23-\x5B\x5D-\x{D7FF}\x{E000}-\x{10FFFF}])*"`,
	},
	{
		Name: "singlequotedstring",
		Ptn:  `'(?:\\[bfnrt/\\']|\\u[0-9A-Fa-f]{4}|[\x20-\x26\x28-\x5B\x5D-\x{D7FF}\x{E000}-\x{10FFFF}])*'`,
	},
})
