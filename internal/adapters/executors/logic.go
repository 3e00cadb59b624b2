package executors

import (
	"context"
	"fmt"
	"strings"

	"github.com/loomworks/loom/internal/domain"
	"github.com/loomworks/loom/internal/ports"
)

// Logic evaluates a boolean condition over the accumulated input data and
// passes the data through annotated with the result. Supported condition
// forms, read from the node config key "condition":
//
//	""                  always true
//	"key"               truthiness of input[key]
//	"key == literal"    string comparison against fmt-rendered value
//	"key != literal"    negated comparison
type Logic struct{}

func (l *Logic) Kind() domain.NodeKind {
	return domain.KindLogic
}

func (l *Logic) Execute(ctx context.Context, node domain.Node, input map[string]interface{}) (*ports.ExecutionResult, error) {
	condition, _ := node.Config["condition"].(string)

	result, err := evaluate(condition, input)
	if err != nil {
		return nil, err
	}

	return &ports.ExecutionResult{
		Output: map[string]interface{}{
			"result": result,
			"input":  input,
		},
	}, nil
}

func evaluate(condition string, input map[string]interface{}) (bool, error) {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return true, nil
	}

	if key, literal, found := splitComparison(condition, "=="); found {
		return render(input[key]) == literal, nil
	}
	if key, literal, found := splitComparison(condition, "!="); found {
		return render(input[key]) != literal, nil
	}
	if strings.ContainsAny(condition, "<>&|") {
		return false, fmt.Errorf("unsupported condition %q", condition)
	}

	return truthy(input[condition]), nil
}

func splitComparison(condition, op string) (key, literal string, found bool) {
	idx := strings.Index(condition, op)
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(condition[:idx])
	literal = strings.Trim(strings.TrimSpace(condition[idx+len(op):]), `"'`)
	return key, literal, key != ""
}

func render(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func truthy(v interface{}) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case string:
		return value != "" && value != "false" && value != "0"
	case float64:
		return value != 0
	case int:
		return value != 0
	default:
		return true
	}
}
