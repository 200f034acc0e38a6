package questionbank

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/mixcoach/internal/skill"
)

// QuestionType describes how a question is presented and answered.
type QuestionType string

const (
	MultipleChoice      QuestionType = "MULTIPLE_CHOICE"
	AudioIdentification QuestionType = "AUDIO_IDENTIFICATION"
	InteractiveMinigame QuestionType = "INTERACTIVE_MINIGAME"
	SliderMatch         QuestionType = "SLIDER_MATCH"
	Ordering            QuestionType = "ORDERING"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, AudioIdentification, InteractiveMinigame, SliderMatch, Ordering:
		return true
	}
	return false
}

// Option is one selectable choice.
type Option struct {
	ID       string `yaml:"id" json:"id"`
	Text     string `yaml:"text" json:"text"`
	AudioURL string `yaml:"audio_url" json:"audioUrl,omitempty"`
}

// Answer is either a single value or an ordered list of values.
// Ordered lists require exact element-wise equality unless the question
// declares a tolerance.
type Answer struct {
	Value string
	List  []string
}

// Scalar builds a single-value answer.
func Scalar(v string) Answer { return Answer{Value: v} }

// List builds an ordered-list answer.
func List(v ...string) Answer { return Answer{List: v} }

// IsList reports whether the answer is an ordered list.
func (a Answer) IsList() bool { return a.List != nil }

// Empty reports whether no value was given.
func (a Answer) Empty() bool {
	if a.IsList() {
		return len(a.List) == 0
	}
	return a.Value == ""
}

// Equal compares two answers exactly, including list order.
func (a Answer) Equal(b Answer) bool {
	if a.IsList() != b.IsList() {
		return false
	}
	if !a.IsList() {
		return a.Value == b.Value
	}
	if len(a.List) != len(b.List) {
		return false
	}
	for i := range a.List {
		if a.List[i] != b.List[i] {
			return false
		}
	}
	return true
}

func (a *Answer) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		a.Value, a.List = node.Value, nil
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return fmt.Errorf("decode answer list: %w", err)
		}
		if list == nil {
			list = []string{}
		}
		a.Value, a.List = "", list
		return nil
	default:
		return fmt.Errorf("answer must be a string or a list of strings (line %d)", node.Line)
	}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsList() {
		return json.Marshal(a.List)
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON accepts a string, a list of strings, or a number.
// Any other shape decodes to an empty answer rather than failing, so a
// garbled submission scores as incorrect instead of rejecting the batch.
func (a *Answer) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		a.Value, a.List = s, nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		if list == nil {
			list = []string{}
		}
		a.Value, a.List = "", list
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		a.Value, a.List = n.String(), nil
		return nil
	}
	a.Value, a.List = "", nil
	return nil
}

// Tolerance is the allowed absolute deviation per parameter for interactive
// questions. Either a single value applies to every parameter, or each
// parameter carries its own; a parameter without an entry must match exactly.
type Tolerance struct {
	All      float64
	PerParam map[string]float64
}

// For returns the tolerance for param.
func (t Tolerance) For(param string) float64 {
	if t.PerParam != nil {
		return t.PerParam[param]
	}
	return t.All
}

func (t *Tolerance) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("tolerance %q: %w", node.Value, err)
		}
		t.All, t.PerParam = v, nil
		return nil
	case yaml.MappingNode:
		var m map[string]float64
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("decode tolerance map: %w", err)
		}
		t.All, t.PerParam = 0, m
		return nil
	default:
		return fmt.Errorf("tolerance must be a number or a map (line %d)", node.Line)
	}
}

func (t Tolerance) MarshalJSON() ([]byte, error) {
	if t.PerParam != nil {
		return json.Marshal(t.PerParam)
	}
	return json.Marshal(t.All)
}

// Params is a parsed set of "param:value" tokens.
type Params map[string]float64

// ParseParams parses "param:value" tokens such as "gain:+3".
// It fails on a malformed token, a non-numeric value, or a repeated parameter.
func ParseParams(tokens []string) (Params, error) {
	out := make(Params, len(tokens))
	for _, tok := range tokens {
		name, raw, ok := strings.Cut(tok, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed parameter token %q", tok)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("parameter %q given twice", name)
		}
		out[name] = v
	}
	return out, nil
}

// Question is a single assessment item.
type Question struct {
	ID            string             `yaml:"id" json:"id"`
	Category      skill.Category     `yaml:"category" json:"category"`
	Type          QuestionType       `yaml:"type" json:"questionType"`
	Difficulty    skill.Difficulty   `yaml:"difficulty" json:"difficulty"`
	Prompt        string             `yaml:"prompt" json:"prompt"`
	AudioURL      string             `yaml:"audio_url" json:"audioUrl,omitempty"`
	Options       []Option           `yaml:"options" json:"options,omitempty"`
	Answer        Answer             `yaml:"answer" json:"correctAnswer"`
	Points        int                `yaml:"points" json:"points"`
	TimeLimitSecs int                `yaml:"time_limit_secs" json:"timeLimit,omitempty"`
	Tracks        []string           `yaml:"tracks" json:"tracks,omitempty"`
	Targets       map[string]float64 `yaml:"targets" json:"targets,omitempty"`
	Tolerance     *Tolerance         `yaml:"tolerance" json:"tolerance,omitempty"`

	// expected is the parsed form of a toleranced list answer, filled at load.
	expected Params
}

// Expected returns the parsed parameter targets of a toleranced question.
// ok is false for questions without a tolerance.
func (q Question) Expected() (Params, bool) {
	if q.Tolerance == nil || q.expected == nil {
		return nil, false
	}
	return q.expected, true
}

// HasOption reports whether id names one of the question's options.
func (q Question) HasOption(id string) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}
