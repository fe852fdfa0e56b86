package tool

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/expr-lang/expr"
)

// Tool categories, in catalog order.
const (
	CategoryGeneral    = "general"
	CategoryReading    = "reading"
	CategoryNavigation = "navigation"
	CategorySearch     = "search"
	CategoryStatus     = "status"
	CategorySelection  = "selection"
	CategoryEdit       = "edit"
	CategoryClipboard  = "clipboard"
	CategoryHistory    = "history"
	CategoryFormatting = "formatting"
	CategoryFile       = "file"
	CategorySpeech     = "speech"
	CategoryApp        = "app"
	CategoryHelp       = "help"
)

type SearchWebArgs struct {
	Query string `json:"query" jsonschema_description:"The search query."`
}

// NewSearchWeb returns the mock web search tool.
func NewSearchWeb() Tool {
	return NewStub("search_web", CategoryGeneral,
		"Search the web for information about a specific query.",
		SearchWebArgs{},
		func(a SearchWebArgs) string { return "Found results for: " + a.Query },
		Rule[SearchWebArgs]{
			When:  func(a SearchWebArgs) bool { return strings.Contains(strings.ToLower(a.Query), "weather") },
			Reply: func(SearchWebArgs) string { return "The weather today is sunny with a high of 75°F." },
		},
		Rule[SearchWebArgs]{
			When:  func(a SearchWebArgs) bool { return strings.Contains(strings.ToLower(a.Query), "news") },
			Reply: func(SearchWebArgs) string { return "Latest news: New AI breakthrough announced today." },
		},
	)
}

type CalculatorArgs struct {
	Expression string `json:"expression" jsonschema_description:"The arithmetic expression to evaluate, e.g. 25 * 4."`
}

// NewCalculator returns the arithmetic tool. Evaluation failures are
// reported in the result text.
func NewCalculator() Tool {
	return NewStub("calculator", CategoryGeneral,
		"Evaluate a mathematical expression.",
		CalculatorArgs{},
		func(a CalculatorArgs) string {
			result, err := evaluate(a.Expression)
			if err != nil {
				return "Error evaluating expression: " + err.Error()
			}
			return fmt.Sprintf("The result of %s is %s", a.Expression, result)
		},
	)
}

func evaluate(expression string) (string, error) {
	if strings.TrimSpace(expression) == "" {
		return "", errors.New("empty expression")
	}
	program, err := expr.Compile(expression, expr.AsFloat64())
	if err != nil {
		return "", firstLine(err)
	}
	out, err := expr.Run(program, nil)
	if err != nil {
		return "", firstLine(err)
	}
	v, ok := out.(float64)
	if !ok {
		return "", errors.New("expression is not a number")
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "", errors.New("division by zero")
	}
	return formatNumber(v), nil
}

func firstLine(err error) error {
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return errors.New(msg)
}

// CurrentTimeArgs is empty: the clock tool takes no arguments.
type CurrentTimeArgs struct{}

// NewCurrentTime returns the clock tool. A nil now uses time.Now.
func NewCurrentTime(now func() time.Time) Tool {
	if now == nil {
		now = time.Now
	}
	return NewStub("get_current_time", CategoryGeneral,
		"Get the current time and date.",
		CurrentTimeArgs{},
		func(CurrentTimeArgs) string {
			t := now()
			return fmt.Sprintf("Current time: %s, Date: %s", t.Format("15:04:05"), t.Format("2006-01-02"))
		},
	)
}
