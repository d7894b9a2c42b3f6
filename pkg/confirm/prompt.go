package confirm

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/MANTRA-Chain/mantra-dex/types"
)

// Prompt writes question to out and reads a single line from in. End of input
// without a newline returns what was read so far.
func Prompt(in io.Reader, out io.Writer, question string) (string, error) {
	if _, err := fmt.Fprint(out, question); err != nil {
		return "", err
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Affirmed reports whether answer is token, ignoring case and surrounding whitespace.
func Affirmed(answer, token string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), token)
}

// Gate asks question and returns nil only when the operator types token. Any other
// answer returns ErrCancelled.
func Gate(in io.Reader, out io.Writer, question, token string) error {
	answer, err := Prompt(in, out, question)
	if err != nil {
		return errorsmod.Wrapf(types.ErrCancelled, "reading confirmation: %v", err)
	}
	if !Affirmed(answer, token) {
		return errorsmod.Wrapf(types.ErrCancelled, "answer %q", answer)
	}
	return nil
}
