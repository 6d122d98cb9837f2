// Package chain реализует маршрутизацию цепочки шагов по исходу ответа.
//
// Цепочка — граф узлов, у каждого узла не более двух исходящих рёбер:
//
//	on_success   — куда передать Data ответа Success
//	on_exception — куда передать Data ответа Exception
//
// Ответ Failure и отсутствие ребра завершают цепочку. GUID запроса
// сохраняется на всех переходах. Граф проверяется до запуска: уникальные ID,
// существующие переходы, отсутствие циклов (алгоритм Кана).
package chain
