package cli

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// readPasswordNoEcho reads one line from stdin. Echo is turned off when stdin is a
// terminal; piped input is read as is.
func readPasswordNoEcho(stdin *os.File) ([]byte, error) {
	if stdin == nil {
		return nil, errors.New("stdin unavailable")
	}

	if restore, err := disableEcho(stdin); err == nil {
		defer restore()
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" && errors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	}
	return []byte(line), nil
}
