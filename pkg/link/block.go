package link

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrBlockFormat is returned for malformed or oversized binary blocks
var ErrBlockFormat = errors.New("bad binary block")

// maxBlockSize is the largest length the 9 digit length field can carry
const maxBlockSize = 999999999

// EncodeBlockHeader returns the "#<n><length>" prefix of a definite length block
func EncodeBlockHeader(size int) (string, error) {
	if size < 0 || size > maxBlockSize {
		return "", fmt.Errorf("%w: can not encode length %d", ErrBlockFormat, size)
	}
	l := strconv.Itoa(size)
	return "#" + strconv.Itoa(len(l)) + l, nil
}

// ReadBlockHeader consumes a "#<n><length>" prefix and returns the length of
// the data that follows. Indefinite length blocks (#0) are not supported.
func ReadBlockHeader(r *bufio.Reader) (int, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != '#' {
		return 0, fmt.Errorf("%w: expected '#', received %q", ErrBlockFormat, b)
	}

	d, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if d < '1' || d > '9' {
		return 0, fmt.Errorf("%w: unsupported length digit count %q", ErrBlockFormat, d)
	}

	l := make([]byte, int(d-'0'))
	if _, err := io.ReadFull(r, l); err != nil {
		return 0, err
	}
	size, err := strconv.Atoi(string(l))
	if err != nil {
		return 0, fmt.Errorf("%w: length %q: %v", ErrBlockFormat, l, err)
	}
	return size, nil
}
