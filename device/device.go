// Package device classifies and parses SLMP register addresses such as "D100", "XFF" or "SD10".
//
// An address is a kind prefix followed by one or more digits. The digit alphabet depends on the
// kind: D and M use decimal offsets, while X, Y, B and SD use hexadecimal offsets.
// Prefixes are case-sensitive; hexadecimal digits accept both cases.
//
// The grammar is a fixed table evaluated in order, first match wins. Adding a register kind is a
// table entry, not new branching logic.
//
// Classification is pure: it depends only on the input text and never on connection state.
package device

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAddress indicates that a register address does not match any register grammar,
// or that its offset cannot be represented in a device number.
var ErrInvalidAddress = errors.New("invalid register address")

// MaxOffset is the largest device number representable in a request (24 bits).
const MaxOffset = 1<<24 - 1

// Kind identifies the register kind of an address.
type Kind uint8

const (
	// Unknown is returned for empty input or input that matches no grammar rule.
	Unknown Kind = iota
	// D is a data register, word addressed, decimal offset.
	D
	// X is an input relay, hexadecimal offset.
	X
	// Y is an output relay, hexadecimal offset.
	Y
	// M is an internal relay, decimal offset.
	M
	// B is a link relay, hexadecimal offset.
	B
	// SD is a special register, hexadecimal offset.
	SD
)

// String returns the address prefix of the kind, or "Unknown".
func (k Kind) String() string {
	if g, ok := lookup(k); ok {
		return g.prefix
	}
	return "Unknown"
}

// Name returns a descriptive name such as "D Register".
func (k Kind) Name() string {
	if g, ok := lookup(k); ok {
		return g.prefix + " Register"
	}
	return "Unknown"
}

// Code returns the SLMP binary device code of the kind, or 0 for Unknown.
func (k Kind) Code() byte {
	if g, ok := lookup(k); ok {
		return g.code
	}
	return 0
}

// Radix returns the base of the kind's offset digits, or 0 for Unknown.
func (k Kind) Radix() int {
	if g, ok := lookup(k); ok {
		return g.radix
	}
	return 0
}

// IsBit reports whether the kind addresses bit devices.
func (k Kind) IsBit() bool {
	g, ok := lookup(k)
	return ok && g.bit
}

// KindByCode returns the kind with the given SLMP device code.
func KindByCode(code byte) (Kind, bool) {
	for _, g := range grammars {
		if g.code == code {
			return g.kind, true
		}
	}
	return Unknown, false
}

type grammar struct {
	kind   Kind
	prefix string
	radix  int
	code   byte
	bit    bool
}

// grammars is evaluated in order. Prefixes and alphabets keep the rules mutually exclusive.
var grammars = []grammar{
	{kind: D, prefix: "D", radix: 10, code: 0xA8},
	{kind: X, prefix: "X", radix: 16, code: 0x9C, bit: true},
	{kind: Y, prefix: "Y", radix: 16, code: 0x9D, bit: true},
	{kind: M, prefix: "M", radix: 10, code: 0x90, bit: true},
	{kind: B, prefix: "B", radix: 16, code: 0xA0, bit: true},
	{kind: SD, prefix: "SD", radix: 16, code: 0xA9},
}

func lookup(k Kind) (grammar, bool) {
	for _, g := range grammars {
		if g.kind == k {
			return g, true
		}
	}
	return grammar{}, false
}

func (g grammar) match(s string) (digits string, ok bool) {
	digits, ok = strings.CutPrefix(s, g.prefix)
	if !ok || digits == "" {
		return "", false
	}
	for i := 0; i < len(digits); i++ {
		if !isDigit(digits[i], g.radix) {
			return "", false
		}
	}
	return digits, true
}

func isDigit(c byte, radix int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case radix == 16 && c >= 'A' && c <= 'F':
		return true
	case radix == 16 && c >= 'a' && c <= 'f':
		return true
	default:
		return false
	}
}

// Classify returns the register kind of s, or Unknown if s matches no grammar rule.
func Classify(s string) Kind {
	for _, g := range grammars {
		if _, ok := g.match(s); ok {
			return g.kind
		}
	}
	return Unknown
}

// Validate reports whether s matches a register grammar. It is equivalent to Classify(s) != Unknown.
func Validate(s string) bool {
	return Classify(s) != Unknown
}

// Address is an immutable, parsed register address.
type Address struct {
	kind   Kind
	raw    string
	offset uint32
}

// Parse classifies s and decodes its offset.
//
// It returns an error wrapping ErrInvalidAddress if s matches no grammar rule or if the offset
// exceeds MaxOffset.
func Parse(s string) (Address, error) {
	for _, g := range grammars {
		digits, ok := g.match(s)
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(digits, g.radix, 32)
		if err != nil || n > MaxOffset {
			return Address{}, fmt.Errorf("%w: %q offset out of range", ErrInvalidAddress, s)
		}
		return Address{kind: g.kind, raw: s, offset: uint32(n)}, nil
	}

	return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
}

// MustParse is like Parse but panics if s is not a valid address.
func MustParse(s string) Address {
	addr, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// Format renders the address text of kind at offset, using the kind's radix.
// It returns an empty string for Unknown.
func Format(kind Kind, offset uint32) string {
	g, ok := lookup(kind)
	if !ok {
		return ""
	}
	return g.prefix + strings.ToUpper(strconv.FormatUint(uint64(offset), g.radix))
}

// Kind returns the register kind.
func (a Address) Kind() Kind { return a.kind }

// Raw returns the text the address was parsed from.
func (a Address) Raw() string { return a.raw }

// Offset returns the device number.
func (a Address) Offset() uint32 { return a.offset }

// IsZero reports whether a is the zero Address.
func (a Address) IsZero() bool { return a.kind == Unknown }

// String returns the raw address text.
func (a Address) String() string { return a.raw }
