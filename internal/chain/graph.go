package chain

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shaiso/stepflow/internal/steps"
)

// Graph — описание цепочки шагов.
type Graph struct {
	Name  string `json:"name"`
	Entry string `json:"entry"`
	Steps []Node `json:"steps"`
}

// Node — узел цепочки.
//
// Unit — имя шага в реестре. Пустые OnSuccess/OnException означают
// конец цепочки для соответствующего исхода.
type Node struct {
	ID          string `json:"id"`
	Unit        string `json:"unit"`
	OnSuccess   string `json:"on_success,omitempty"`
	OnException string `json:"on_exception,omitempty"`
}

// Node возвращает узел по ID.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Steps {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// ParseGraph разбирает граф из JSON.
//
// Если entry не указан — точкой входа считается первый узел.
func ParseGraph(data []byte) (*Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse chain graph: %w", err)
	}

	if g.Entry == "" && len(g.Steps) > 0 {
		g.Entry = g.Steps[0].ID
	}

	return &g, nil
}

// Имена встроенных графов.
const (
	GraphMultistep          = "multistep"
	GraphMultistepException = "multistep-exception"
)

var builtinGraphs = map[string]func() *Graph{
	// generator: Success → loopback-get, Exception → exception
	GraphMultistep: func() *Graph {
		return &Graph{
			Name:  GraphMultistep,
			Entry: "step1",
			Steps: []Node{
				{ID: "step1", Unit: steps.StepGenerator, OnSuccess: "loopback", OnException: "handler"},
				{ID: "loopback", Unit: steps.StepLoopbackGet},
				{ID: "handler", Unit: steps.StepException},
			},
		}
	},

	// sqrt: Exception → exception
	GraphMultistepException: func() *Graph {
		return &Graph{
			Name:  GraphMultistepException,
			Entry: "step3",
			Steps: []Node{
				{ID: "step3", Unit: steps.StepSqrt, OnException: "handler"},
				{ID: "handler", Unit: steps.StepException},
			},
		}
	},
}

// Builtin возвращает копию встроенного графа.
func Builtin(name string) (*Graph, error) {
	build, ok := builtinGraphs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, name)
	}
	return build(), nil
}

// BuiltinNames возвращает отсортированные имена встроенных графов.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinGraphs))
	for n := range builtinGraphs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
