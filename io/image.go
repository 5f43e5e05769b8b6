package io

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
)

const (
	// IMAGE_WORD_BITS is the width of a word line.
	IMAGE_WORD_BITS = 32
	// IMAGE_ADDRESS_BITS is the minimum width of a written address.
	IMAGE_ADDRESS_BITS = 8
	// IMAGE_ADDRESS is the directive setting the load address.
	IMAGE_ADDRESS = "address"
)

// Entry is a single word of an image, and where it loads.
type Entry struct {
	Address uint32
	Word    uint32
}

// Image is a loadable program in text form. Each word is a line of 32
// binary digits, most significant first, preceded by an optional
// 'address <binary>' line. Words without an address line load at the
// address following the previous word.
type Image struct {
	Entries []Entry
}

// Append adds (address, word) pairs to the image.
func (img *Image) Append(words iter.Seq2[uint32, uint32]) {
	for address, word := range words {
		img.Entries = append(img.Entries, Entry{Address: address, Word: word})
	}
}

// Words iterates over the (address, word) pairs of the image, in image order.
func (img *Image) Words() iter.Seq2[uint32, uint32] {
	return func(yield func(address uint32, word uint32) bool) {
		for _, entry := range img.Entries {
			if !yield(entry.Address, entry.Word) {
				return
			}
		}
	}
}

// parseBinary parses a string of binary digits no wider than 32 bits.
func parseBinary(text string) (value uint32, ok bool) {
	if len(text) == 0 || len(text) > IMAGE_WORD_BITS {
		return
	}
	v64, err := strconv.ParseUint(text, 2, 32)
	if err != nil {
		return
	}

	value = uint32(v64)
	ok = true
	return
}

// Unmarshal loads image data from a reader, replacing any existing data.
// Blank lines are ignored.
func (img *Image) Unmarshal(file io.Reader) (err error) {
	scanner := bufio.NewScanner(file)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrImage{LineNo: lineno, Line: line, Err: err}
		}
	}()

	img.Entries = img.Entries[:0]

	var address uint32
	pending := false
	for scanner.Scan() {
		line = strings.TrimSpace(scanner.Text())
		lineno++

		if len(line) == 0 {
			continue
		}

		fields := strings.Fields(line)
		if strings.ToLower(fields[0]) == IMAGE_ADDRESS {
			if pending {
				err = ErrWordMissing
				return
			}
			var ok bool
			if len(fields) != 2 {
				err = ErrAddressSyntax
				return
			}
			address, ok = parseBinary(fields[1])
			if !ok {
				err = ErrAddressSyntax
				return
			}
			pending = true
			continue
		}

		if len(line) != IMAGE_WORD_BITS {
			err = ErrWordSyntax
			return
		}
		word, ok := parseBinary(line)
		if !ok {
			err = ErrWordSyntax
			return
		}

		img.Entries = append(img.Entries, Entry{Address: address, Word: word})
		address++
		pending = false
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if pending {
		err = ErrWordMissing
		return
	}

	return
}

// Marshal writes the image to a writer, with an address line before every
// word.
func (img *Image) Marshal(file io.Writer) (err error) {
	buf := bufio.NewWriter(file)

	for _, entry := range img.Entries {
		_, err = fmt.Fprintf(buf, "%v %0*b\n%0*b\n", IMAGE_ADDRESS,
			IMAGE_ADDRESS_BITS, entry.Address,
			IMAGE_WORD_BITS, entry.Word)
		if err != nil {
			return
		}
	}

	err = buf.Flush()

	return
}
