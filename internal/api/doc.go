// Package api содержит HTTP step host.
//
// Структура:
//   - handler.go       — Handler с DI (executor, runner, журнал, logger)
//   - routes.go        — регистрация маршрутов
//   - middleware.go    — middleware (recovery, logging, metrics)
//   - response.go      — унифицированные JSON-ответы и обработка ошибок
//   - dto.go           — Data Transfer Objects
//   - step_handler.go  — обработчики для /steps
//   - chain_handler.go — обработчики для /chains
//   - journal_handler.go — обработчики для /invocations
//
// Вызов шага отвечает самим конвертом Response с HTTP 200: исход шага
// передаётся в теле (Result, StatusCode), а не HTTP статусом.
package api
