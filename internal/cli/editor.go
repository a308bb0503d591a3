package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/ariel-frischer/fragnote/internal/errors"
)

// editorCommand resolves the editor command line from the VISUAL and
// EDITOR environment variables, in that order. The value may carry
// arguments, e.g. EDITOR="code --wait".
func editorCommand() ([]string, error) {
	for _, name := range []string{"VISUAL", "EDITOR"} {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return strings.Fields(value), nil
		}
	}
	return nil, apperrors.EditorNotSet()
}

// editText opens text in the user's editor via a temporary .yaml file
// and returns whatever was saved. The terminal is handed to the editor
// for the duration of the session.
func editText(text []byte) ([]byte, error) {
	argv, err := editorCommand()
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "fragnote-*.yaml")
	if err != nil {
		return nil, fmt.Errorf("creating temp fragment: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(text); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing temp fragment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("writing temp fragment: %w", err)
	}

	editor := exec.Command(argv[0], append(argv[1:], path)...)
	editor.Stdin = os.Stdin
	editor.Stdout = os.Stdout
	editor.Stderr = os.Stderr
	if err := editor.Run(); err != nil {
		return nil, fmt.Errorf("running editor %s: %w", argv[0], err)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading edited fragment: %w", err)
	}
	return edited, nil
}

// promptConfirm asks a yes/no question on stderr and reads the answer
// from stdin. An empty answer takes the default.
func promptConfirm(cmd *cobra.Command, question string, defaultYes bool) bool {
	suffix := "[y/N]"
	if defaultYes {
		suffix = "[Y/n]"
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: ", question, suffix)

	reader := bufio.NewReader(cmd.InOrStdin())
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer == "" {
		return defaultYes
	}
	return answer == "y" || answer == "yes"
}
