// Package sqlast provides a SQL parser, AST, and formatter for the statements
// an application issues through its persistence layer.
//
// It understands the common dialect shared by SQLite and PostgreSQL for
// SELECT (including CTEs, joins, set operations, and subqueries), INSERT,
// UPDATE, and DELETE, plus both `?` and `$n` bind placeholders. Everything
// else is rejected with a parse error so callers can treat the text as opaque.
//
// The parser is designed for the guard pipeline: statement classification,
// table name extraction, predicate injection, and pagination rewriting.
package sqlast

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
type TokenType int

// TokEOF and friends enumerate all token types produced by the lexer.
const (
	TokEOF     TokenType = iota // end of input
	TokIllegal                  // unexpected character

	TokIdent  // identifier
	TokNumber // 123, 45.67, 1e10
	TokString // 'hello'
	TokQMark  // ? placeholder
	TokDollar // $1 placeholder

	TokPlus        // +
	TokMinus       // -
	TokStar        // *
	TokSlash       // /
	TokPercent     // %
	TokConcat      // ||
	TokEq          // =
	TokNotEq       // != or <>
	TokLt          // <
	TokGt          // >
	TokLtEq        // <=
	TokGtEq        // >=
	TokDot         // .
	TokComma       // ,
	TokSemicolon   // ;
	TokLParen      // (
	TokRParen      // )
	TokDoubleColon // :: (PostgreSQL cast)

	// TokAll and below are SQL keywords (alphabetical).
	TokAll
	TokAnd
	TokAs
	TokAsc
	TokBetween
	TokBy
	TokCase
	TokCast
	TokConflict
	TokCross
	TokCurrentDate
	TokCurrentTime
	TokCurrentTimestamp
	TokDefault
	TokDelete
	TokDesc
	TokDistinct
	TokDo
	TokElse
	TokEnd
	TokEscape
	TokExcept
	TokExists
	TokFalse
	TokFirst
	TokFrom
	TokFull
	TokGroup
	TokHaving
	TokILike
	TokIn
	TokInner
	TokInsert
	TokIntersect
	TokInto
	TokIs
	TokJoin
	TokLast
	TokLeft
	TokLike
	TokLimit
	TokNatural
	TokNot
	TokNothing
	TokNull
	TokNulls
	TokOffset
	TokOn
	TokOr
	TokOrder
	TokOuter
	TokRecursive
	TokReturning
	TokRight
	TokSelect
	TokSet
	TokThen
	TokTrue
	TokUnion
	TokUpdate
	TokUsing
	TokValues
	TokWhen
	TokWhere
	TokWith
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// tokenNames maps token types to their string representations.
var tokenNames = map[TokenType]string{
	TokEOF:     "EOF",
	TokIllegal: "ILLEGAL",
	TokIdent:   "IDENT",
	TokNumber:  "NUMBER",
	TokString:  "STRING",
	TokQMark:   "?",
	TokDollar:  "$",

	TokPlus:        "+",
	TokMinus:       "-",
	TokStar:        "*",
	TokSlash:       "/",
	TokPercent:     "%",
	TokConcat:      "||",
	TokEq:          "=",
	TokNotEq:       "!=",
	TokLt:          "<",
	TokGt:          ">",
	TokLtEq:        "<=",
	TokGtEq:        ">=",
	TokDot:         ".",
	TokComma:       ",",
	TokSemicolon:   ";",
	TokLParen:      "(",
	TokRParen:      ")",
	TokDoubleColon: "::",
}

// keywordSpellings lists keyword tokens in declaration order, starting at
// TokAll.
var keywordSpellings = strings.Fields(`
	ALL AND AS ASC BETWEEN BY CASE CAST CONFLICT CROSS CURRENT_DATE
	CURRENT_TIME CURRENT_TIMESTAMP DEFAULT DELETE
	DESC DISTINCT DO ELSE END ESCAPE EXCEPT EXISTS FALSE FIRST FROM
	FULL GROUP HAVING ILIKE IN INNER INSERT INTERSECT INTO IS JOIN
	LAST LEFT LIKE LIMIT NATURAL NOT NOTHING NULL NULLS OFFSET ON OR
	ORDER OUTER RECURSIVE RETURNING RIGHT SELECT SET THEN TRUE UNION
	UPDATE USING VALUES WHEN WHERE WITH
`)

// keywords maps lowercase spellings to keyword tokens.
var keywords = make(map[string]TokenType, len(keywordSpellings))

func init() {
	for i, w := range keywordSpellings {
		t := TokAll + TokenType(i)
		tokenNames[t] = w
		keywords[strings.ToLower(w)] = t
	}
}

// lookupKeyword returns the token type for the given lowercase identifier.
// Returns TokIdent if it's not a keyword.
func lookupKeyword(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokIdent
}

// isKeywordType reports whether t is one of the SQL keyword tokens.
func isKeywordType(t TokenType) bool {
	return t >= TokAll && t <= TokWith
}

// Token represents a lexical token with its literal value.
type Token struct {
	Type    TokenType
	Literal string
	Quoted  bool // identifier was written in double quotes
}
