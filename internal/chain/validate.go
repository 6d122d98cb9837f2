package chain

import "fmt"

// Validate выполняет полную валидацию графа.
//
// Проверяет:
//   - Наличие узлов
//   - Уникальность и непустоту ID
//   - Наличие шага у каждого узла (has == nil — регистрация не проверяется)
//   - Существование целей переходов и точки входа
//   - Отсутствие петель и циклов
func Validate(g *Graph, has func(unit string) bool) error {
	if g == nil || len(g.Steps) == 0 {
		return ErrEmptyGraph
	}

	ids := make(map[string]bool, len(g.Steps))

	for _, n := range g.Steps {
		if err := validateNode(n, ids, has); err != nil {
			return err
		}
	}

	for _, n := range g.Steps {
		if err := validateEdges(n, ids); err != nil {
			return err
		}
	}

	if !ids[g.Entry] {
		return NewValidationError("", "entry",
			fmt.Sprintf("entry node not found: %q", g.Entry), ErrUnknownEntry)
	}

	if _, err := topologicalOrder(g); err != nil {
		return err
	}

	return nil
}

// validateNode проверяет один узел.
// ids — уже встреченные ID (для проверки уникальности).
func validateNode(n Node, ids map[string]bool, has func(string) bool) error {
	if n.ID == "" {
		return NewValidationError("", "id", "node has empty ID", ErrEmptyNodeID)
	}

	if ids[n.ID] {
		return NewValidationError(n.ID, "id",
			fmt.Sprintf("duplicate node ID: %s", n.ID), ErrDuplicateNodeID)
	}
	ids[n.ID] = true

	if n.Unit == "" {
		return NewValidationError(n.ID, "unit", "node has empty unit", ErrEmptyUnit)
	}

	if has != nil && !has(n.Unit) {
		return NewValidationError(n.ID, "unit",
			fmt.Sprintf("unknown unit: %s", n.Unit), ErrUnknownUnit)
	}

	return nil
}

// validateEdges проверяет, что переходы ссылаются на существующие узлы.
func validateEdges(n Node, ids map[string]bool) error {
	edges := []struct {
		field  string
		target string
	}{
		{"on_success", n.OnSuccess},
		{"on_exception", n.OnException},
	}

	for _, e := range edges {
		if e.target == "" {
			continue
		}
		if e.target == n.ID {
			return NewValidationError(n.ID, e.field, "node routes to itself", ErrSelfLoop)
		}
		if !ids[e.target] {
			return NewValidationError(n.ID, e.field,
				fmt.Sprintf("routes to unknown node: %s", e.target), ErrUnknownSuccessor)
		}
	}

	return nil
}

// topologicalOrder выполняет топологическую сортировку (алгоритм Кана).
// Возвращает ErrCyclicGraph, если обнаружен цикл.
func topologicalOrder(g *Graph) ([]string, error) {
	inDegree := make(map[string]int, len(g.Steps))
	next := make(map[string][]string, len(g.Steps))

	for _, n := range g.Steps {
		if _, ok := inDegree[n.ID]; !ok {
			inDegree[n.ID] = 0
		}
		for _, to := range successors(n) {
			next[n.ID] = append(next[n.ID], to)
			inDegree[to]++
		}
	}

	// Очередь в порядке объявления узлов
	queue := make([]string, 0, len(g.Steps))
	for _, n := range g.Steps {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	order := make([]string, 0, len(g.Steps))

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, to := range next[id] {
			inDegree[to]--
			if inDegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	if len(order) != len(inDegree) {
		return nil, NewValidationError("", "steps", "chain graph contains a cycle", ErrCyclicGraph)
	}

	return order, nil
}

// successors возвращает различные непустые переходы узла.
func successors(n Node) []string {
	out := make([]string, 0, 2)
	if n.OnSuccess != "" {
		out = append(out, n.OnSuccess)
	}
	if n.OnException != "" && n.OnException != n.OnSuccess {
		out = append(out, n.OnException)
	}
	return out
}
