package prompt

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"

	"github.com/satishbabariya/unisql/internal/core/query/binder"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// Prompter asks the user for the text of one placeholder.
type Prompter interface {
	Ask(param domain.Param, t domain.LogicalType) (string, error)
}

// Survey prompts on the terminal.
type Survey struct {
	opts []survey.AskOpt
}

// NewSurvey returns a terminal prompter. opts are passed to every question,
// e.g. survey.WithStdio.
func NewSurvey(opts ...survey.AskOpt) *Survey {
	return &Survey{opts: opts}
}

// Ask prompts until the answer parses as t.
func (s *Survey) Ask(param domain.Param, t domain.LogicalType) (string, error) {
	if t == "" {
		t = domain.TypeAny
	}
	q := &survey.Input{
		Message: fmt.Sprintf("Value for %s (%s):", param.Key(), t),
		Help:    "Type null to bind NULL.",
	}
	validate := func(ans any) error {
		text, _ := ans.(string)
		_, err := ParseValue(text, t)
		return err
	}

	var answer string
	opts := append([]survey.AskOpt{survey.WithValidator(validate)}, s.opts...)
	if err := survey.AskOne(q, &answer, opts...); err != nil {
		return "", err
	}
	return answer, nil
}

// Fill returns a copy of params with every missing placeholder answered
// through p.
func Fill(slots []binder.Slot, params *binder.ParameterSet, p Prompter) (*binder.ParameterSet, error) {
	out := params.Clone()
	types := Types(slots)
	for _, param := range Missing(slots, params) {
		t := types[param.Key()]
		text, err := p.Ask(param, t)
		if err != nil {
			return nil, fmt.Errorf("prompt for %s: %w", param.Key(), err)
		}
		v, err := ParseValue(text, t)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", param.Key(), err)
		}
		if param.Name != "" {
			out.Set(param.Name, v)
		} else {
			out.SetPositional(param.Position, v)
		}
	}
	return out, nil
}
