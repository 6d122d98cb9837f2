// Package cli реализует stepctl — инструмент командной строки для шагов.
//
// # Обзор
//
// stepctl вызывает шаги, ведёт цепочки и запускает smoke-проверки
// API-клиентов. Без --host шаги выполняются in-process из стандартного
// реестра; с --host — через HTTP на step host.
//
// # Ключевые компоненты
//
// ## Backend
//
// LocalBackend (worker.Executor) и RemoteBackend (Client). Оба реализуют
// chain.Invoker, поэтому `chain run` ведёт цепочку одинаково для
// локальных и удалённых шагов.
//
// ## Client
//
// HTTP-клиент step host на resty. Разбирает DataResponse, ListResponse
// и ErrorResponse; ошибки API — *APIError.
//
//	client := cli.NewClient("http://localhost:8080")
//	resp, err := client.Process(ctx, "multiply", envelope.NewRequestText("guid-1", "10"))
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: stepctl chain run multistep --json | jq .
//
// ## Commands
//
//   - steps: list, invoke, selftest
//   - chain: list, run, validate
//   - smoke [--cron]
//   - invocations: list (только с --host)
package cli
