package lexer

import (
	"slip/token"
)

func isDigit(char byte) bool {
	return '0' <= char && char <= '9'
}

// isReserved reports whether a byte terminates an identifier run. The set
// deliberately excludes '-' and '=': a leading '-' or '=' lexes as its own
// token, but inside a run they continue the identifier. Malformed runs are
// accepted as identifiers; the scanner has no failure mode.
func isReserved(char byte) bool {
	switch char {
	case '(', ')', '{', '}', ';', '+', '*', '/', '.', ',':
		return true
	}
	return false
}

func isWhiteSpace(char byte) bool {
	switch char {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// Lexer is a lexical scanner producing tokens from a source buffer.
// It maintains the current scanning state: the position within the input
// and the 1-based line counter. The input buffer is borrowed for the
// lifetime of the scan; token payloads are copied out of it.
type Lexer struct {
	// The source bytes being scanned, half-open [0, totalBytes).
	data []byte

	// Total number of bytes in the input.
	totalBytes int

	// The index of the next byte to examine.
	position int

	// 1-based line of the byte at position. Incremented on every '\n'
	// consumed while skipping whitespace.
	line int
}

// New initializes and returns a new Lexer over the given source buffer.
func New(input []byte) *Lexer {
	return &Lexer{
		data:       input,
		totalBytes: len(input),
		line:       1,
	}
}

// NewString initializes a Lexer over the bytes of a source string.
func NewString(input string) *Lexer {
	return New([]byte(input))
}

// Determines if the lexer has consumed all the source bytes.
func (lexer *Lexer) isFinished() bool {
	return lexer.position >= lexer.totalBytes
}

// Skips all whitespace in the input while advancing the lexer's position,
// counting lines as newlines go by.
func (lexer *Lexer) skipWhiteSpace() {
	for !lexer.isFinished() && isWhiteSpace(lexer.data[lexer.position]) {
		if lexer.data[lexer.position] == '\n' {
			lexer.line++
		}
		lexer.position++
	}
}

// truncate caps a payload run at token.MaxPayloadLen bytes. The excess is
// dropped silently.
func truncate(run []byte) string {
	if len(run) > token.MaxPayloadLen {
		run = run[:token.MaxPayloadLen]
	}
	return string(run)
}

// handleNumber accumulates a run of decimal digits into a signed 64-bit
// value. Overflow wraps in two's complement; inputs are expected to stay
// in range.
func (lexer *Lexer) handleNumber(line int) token.Token {
	initPos := lexer.position
	var num int64
	for !lexer.isFinished() && isDigit(lexer.data[lexer.position]) {
		num = num*10 + int64(lexer.data[lexer.position]-'0')
		lexer.position++
	}
	return token.CreateIntToken(num, string(lexer.data[initPos:lexer.position]), line)
}

// handleStringLiteral consumes bytes up to the next '"' or end of input
// and copies them as the token payload. The closing quote is consumed if
// present; an unterminated literal simply runs to the end of the input.
func (lexer *Lexer) handleStringLiteral(line int) token.Token {
	lexer.position++ // opening quote
	initPos := lexer.position
	for !lexer.isFinished() && lexer.data[lexer.position] != '"' {
		lexer.position++
	}
	payload := truncate(lexer.data[initPos:lexer.position])
	if !lexer.isFinished() {
		lexer.position++ // closing quote
	}
	return token.CreatePayloadToken(token.STRING, payload, line)
}

// handleIdentifier accumulates a run of bytes that are neither whitespace
// nor reserved punctuation, then classifies it as a keyword or a user
// identifier.
func (lexer *Lexer) handleIdentifier(line int) token.Token {
	initPos := lexer.position
	for !lexer.isFinished() &&
		!isWhiteSpace(lexer.data[lexer.position]) &&
		!isReserved(lexer.data[lexer.position]) {
		lexer.position++
	}
	if lexer.position == initPos {
		// A reserved byte that forms no token of its own (e.g. '.') still
		// has to make progress; it becomes a one-byte identifier.
		lexer.position++
	}
	run := truncate(lexer.data[initPos:lexer.position])
	if keywordType, exists := token.KeyWords[run]; exists {
		return token.CreateToken(keywordType, line)
	}
	return token.CreatePayloadToken(token.IDENTIFIER, run, line)
}

// Next scans and returns the next token in the input. Past the end of the
// input it returns EOF forever. The scanner is total over the input bytes:
// there are no lexical errors.
func (lexer *Lexer) Next() token.Token {
	lexer.skipWhiteSpace()

	line := lexer.line
	if lexer.isFinished() {
		return token.CreateToken(token.EOF, line)
	}

	char := lexer.data[lexer.position]
	switch char {
	case '(':
		lexer.position++
		return token.CreateToken(token.LPA, line)
	case ')':
		lexer.position++
		return token.CreateToken(token.RPA, line)
	case '{':
		lexer.position++
		return token.CreateToken(token.LCUR, line)
	case '}':
		lexer.position++
		return token.CreateToken(token.RCUR, line)
	case ';':
		lexer.position++
		return token.CreateToken(token.SEMICOLON, line)
	case ',':
		lexer.position++
		return token.CreateToken(token.COMMA, line)
	case '=':
		lexer.position++
		return token.CreateToken(token.ASSIGN, line)
	case '+':
		lexer.position++
		return token.CreateToken(token.ADD, line)
	case '-':
		lexer.position++
		return token.CreateToken(token.SUB, line)
	case '*':
		lexer.position++
		return token.CreateToken(token.MULT, line)
	case '/':
		lexer.position++
		return token.CreateToken(token.DIV, line)
	case '"':
		return lexer.handleStringLiteral(line)
	}

	if isDigit(char) {
		return lexer.handleNumber(line)
	}
	return lexer.handleIdentifier(line)
}

// Scan performs lexical analysis on the whole input and returns the token
// slice, terminated by a single EOF token.
func (lexer *Lexer) Scan() []token.Token {
	tokens := []token.Token{}
	for {
		tok := lexer.Next()
		tokens = append(tokens, tok)
		if tok.TokenType == token.EOF {
			return tokens
		}
	}
}
