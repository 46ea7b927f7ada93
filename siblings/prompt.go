package siblings

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"golang.org/x/term"
)

// AllOption selects every sibling when picked in the multi-select
const AllOption = "All"

var (
	// ErrCancelled is returned when the user interrupts a prompt
	ErrCancelled = errors.New("selection cancelled by user")

	// ErrNotInteractive is returned when a selection is needed but stdin is not a terminal
	ErrNotInteractive = errors.New("interactive selection requires a terminal; pass --direction with --to, --all or --from")
)

const (
	choiceCopyTo   = "Copy to siblings"
	choiceCopyFrom = "Copy from sibling"
)

// Prompter asks the user for the choices not given on the command line
type Prompter interface {
	SelectDirection() (Direction, error)
	SelectTargets(directories []string) ([]string, error)
	SelectSource(directories []string) (string, error)
}

// SurveyPrompter prompts on the terminal
type SurveyPrompter struct {
	stdio terminal.Stdio
}

// NewSurveyPrompter returns a terminal prompter, or ErrNotInteractive when
// stdin is not a TTY.
func NewSurveyPrompter() (*SurveyPrompter, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, ErrNotInteractive
	}
	return &SurveyPrompter{stdio: terminal.Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}}, nil
}

func (p *SurveyPrompter) SelectDirection() (Direction, error) {
	var answer string
	err := p.ask(&survey.Select{
		Message: "Select copy direction",
		Options: []string{choiceCopyTo, choiceCopyFrom},
	}, &answer)
	if err != nil {
		return "", err
	}
	if answer == choiceCopyFrom {
		return DirectionFrom, nil
	}
	return DirectionTo, nil
}

func (p *SurveyPrompter) SelectTargets(directories []string) ([]string, error) {
	var selected []string
	err := p.ask(&survey.MultiSelect{
		Message: "Select directories to copy to",
		Options: append([]string{AllOption}, directories...),
		Help:    "space to select, enter to confirm",
	}, &selected)
	if err != nil {
		return nil, err
	}
	return ResolveTargets(selected, directories), nil
}

func (p *SurveyPrompter) SelectSource(directories []string) (string, error) {
	var selected string
	err := p.ask(&survey.Select{
		Message: "Select directory to copy from",
		Options: directories,
	}, &selected)
	return selected, err
}

func (p *SurveyPrompter) ask(prompt survey.Prompt, response interface{}) error {
	err := survey.AskOne(prompt, response, survey.WithStdio(p.stdio.In, p.stdio.Out, p.stdio.Err))
	if errors.Is(err, terminal.InterruptErr) {
		return ErrCancelled
	}
	if err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// ResolveTargets expands a selection containing AllOption to every directory
func ResolveTargets(selected, directories []string) []string {
	for _, s := range selected {
		if s == AllOption {
			return directories
		}
	}
	return selected
}
