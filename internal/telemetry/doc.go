// Package telemetry обеспечивает наблюдаемость step host и CLI.
//
// Включает:
//   - logging.go — structured logging процесса через slog
//   - steplog.go — журнал шагов: JSON-записи TimestampUtc/Severity/Message
//   - metrics.go — Prometheus метрики вызовов шагов, цепочек, HTTP, smoke-проверок и периодических проб
//
// Журнал шагов отделён от логов процесса: у него своя шкала из семи
// уровней (Debug … Emergency), и невалидный уровень — ошибка вызова,
// а не молчаливая подмена.
package telemetry
