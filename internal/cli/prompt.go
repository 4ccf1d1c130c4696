package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// PromptForTopic asks for a presentation topic on stdin until a non-empty
// answer is given or input ends.
func PromptForTopic() string {
	return promptForTopic(os.Stdin, os.Stdout)
}

func promptForTopic(in io.Reader, out io.Writer) string {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Presentation topic: ")
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input != "" {
			return input
		}
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read topic")
			return ""
		}
	}
}
