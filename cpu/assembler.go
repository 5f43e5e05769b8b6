// Copyright 2025, The urisc Authors

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
	"LR":     fmt.Sprintf("r%d", LINK_REGISTER),
	"ZERO":   fmt.Sprintf("r%d", ZERO_REGISTER),
}

// Assembler is a single pass macro assembler for the machine.
type Assembler struct {
	Verbose bool   // If set, verbosely logs the assembler actions.
	Line    []Line // List of assembled lines.

	predefine map[string]string   // Predefines
	address   uint32              // Location counter.
	used      map[uint32]int      // Assembled addresses, to source line.
	Label     map[string]uint32   // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	if len(word) == 0 {
		err = ErrOpcodeValueMissing
		return
	}

	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	v64, err := strconv.ParseInt(word, 0, 34)
	if err != nil || v64 > 0xffffffff || v64 < -int64(0x80000000) {
		err = ErrParseNumber(word)
		return
	}

	value = Mask32(v64)

	if invert {
		value = ^value
	}

	return
}

var labelRegexp = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)

// registerOf returns the register index of a word such as "r7".
func (asm *Assembler) registerOf(word string) (reg uint32, err error) {
	lower := strings.ToLower(word)
	if len(lower) < 2 || lower[0] != 'r' {
		err = ErrParseRegister(word)
		return
	}
	index, err := strconv.ParseUint(lower[1:], 10, 8)
	if err != nil {
		err = ErrParseRegister(word)
		return
	}
	if index >= REGISTER_COUNT {
		err = fmt.Errorf("%w: %v", ErrRegisterInvalid, word)
		return
	}

	reg = uint32(index)
	return
}

// targetOf returns the value of an address operand, or the label to be
// linked later.
func (asm *Assembler) targetOf(word string) (value uint32, label string, err error) {
	address, ok := asm.Label[word]
	if ok {
		value = address
		return
	}

	value, err = asm.valueOf(word)
	if err != nil && labelRegexp.MatchString(word) {
		err = nil
		label = word
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value32 uint32
		value32, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(value32))
	}
	for key, address := range asm.Label {
		pred[key] = starlark.MakeInt(int(address))
	}
	err = nil

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = Mask32(st_int64)
	return
}

var (
	charRegexp  = regexp.MustCompile(`'\\?[^']'`)
	parenRegexp = regexp.MustCompile(`\$\([^\$]*\)`)
	splitRegexp = regexp.MustCompile(`[,\s]+`)
)

// parseLine parses a single line into words, handling equates, labels,
// macros and the address directive.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = charRegexp.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\000"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = parenRegexp.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = slices.DeleteFunc(splitRegexp.Split(line, -1), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]uint32, 16)
		}
		asm.Label[label] = asm.address
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// address N
	if strings.ToLower(words[0]) == "address" {
		if len(words) != 2 {
			err = ErrAddressSyntax
			return
		}
		var address uint32
		address, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		asm.address = address
		words = words[:0]
		return
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		// Local labels are unique per expansion.
		local := fmt.Sprintf("%v_%v_", name, lineno)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into an assembled Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Line = asm.Line[:0]
	asm.address = 0
	asm.used = make(map[uint32]int)
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := slices.DeleteFunc(splitRegexp.Split(line, -1), func(a string) bool { return len(a) == 0 })

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Line {
		op := &asm.Line[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		address, ok := asm.Label[op.LinkLabel]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(op.LinkLabel)
			return
		}
		err = asm.link(op, address)
		if err != nil {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			return
		}
	}

	prog = &Program{
		Lines: slices.Clone(asm.Line),
	}

	return
}

// link re-encodes a line with its label operand resolved. The label is
// always the last operand.
func (asm *Assembler) link(op *Line, address uint32) (err error) {
	dec := Decode(op.Word)
	operands := dec.Operands()
	operands[len(operands)-1] = address
	op.Word, err = Encode(dec.Mnemonic, operands...)
	return
}

// parseWords assembles the words of a single instruction.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	mnemonic := strings.ToLower(words[0])
	op, ok := Lookup(mnemonic)
	if !ok {
		err = ErrMnemonicUnknown
		return
	}

	form := op.Form()
	args := words[1:]
	if len(args) < form.Operands() {
		err = ErrOpcodeValueMissing
		return
	}
	if len(args) > form.Operands() {
		err = ErrOpcodeExtraArgs
		return
	}

	var label string
	operands := make([]uint32, len(args))
	for n, arg := range args {
		switch {
		case form == FORM_CONST && n == 1:
			operands[n], err = asm.valueOf(arg)
		case form == FORM_JUMP, form == FORM_BRANCH && n == 2:
			operands[n], label, err = asm.targetOf(arg)
		default:
			operands[n], err = asm.registerOf(arg)
		}
		if err != nil {
			return
		}
	}

	word, err := Encode(mnemonic, operands...)
	if err != nil {
		return
	}

	if prior, ok := asm.used[asm.address]; ok {
		err = fmt.Errorf("%w: 0x%04x (line %d)", ErrAddressOverlap, asm.address, prior)
		return
	}
	asm.used[asm.address] = lineno

	asm.Line = append(asm.Line, Line{
		LineNo:    lineno,
		Address:   asm.address,
		Words:     words,
		Word:      word,
		LinkLabel: label,
	})
	asm.address++

	return
}
