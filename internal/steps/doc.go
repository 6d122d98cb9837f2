// Package steps содержит контракт шага и эталонные реализации.
//
// # Обзор
//
// Шаг (Unit) — независимо вызываемая единица вычислений. Внешний оркестратор
// передаёт ему конверт Request и получает ровно один конверт Response:
//
//	type Unit interface {
//	    Name() string
//	    Process(req envelope.Request) envelope.Response
//	}
//
// Process никогда не пропускает отказ наружу: любая ошибка внутри шага
// превращается в ответ Result = Exception, StatusCode = 500.
//
// # Алгоритм шага
//
// Все шаги строятся через Run:
//
//  1. Запись о входе в журнал (с GUID)
//  2. Декодирование Data, если шаг потребляет вход
//  3. Доменная логика внутри Guard
//  4. Кодирование результата или диагностики в base64
//  5. Запись о выходе с исходом
//
// # Guard
//
// Guard различает ожидаемые ошибки (ErrDecode, ErrInvalidInput, *DomainError)
// и неожиданные (прочие error, паники). Обе группы дают Exception, но вторая
// пишется в журнал на уровне Critical. Ответ, нарушающий контракт конверта,
// заменяется на Exception.
//
// # Стандартные шаги
//
//	generator    — случайное число в [0, 100]; делится на 3 → Exception
//	multiply     — вход × 5
//	sqrt         — корень, округлённый до целого; отрицательный вход → Exception
//	exception    — обработчик Exception-ребра; всегда Success "Exception raised"
//	loopback-get — всегда Success "Hello from the loopback GET method"
//
// Эти шаги — примеры полезной нагрузки, а не часть контракта.
//
// # Self-test
//
// SelfTest вызывает шаг in-process с синтетическим запросом и печатает:
//
//	Response      : {"Result":"Success","StatusCode":200,...}
//	Decoded data  : 50
//
// Включается флагом конфигурации, а не глобальной переменной пакета.
//
// # Файлы пакета
//
//   - step.go      — интерфейс Unit, ошибки, DomainError, DecodeInt
//   - guard.go     — Guard и Run
//   - registry.go  — Registry и DefaultRegistry
//   - selftest.go  — SelfTest
//   - generator.go, multiply.go, sqrt.go, exception.go, loopback.go — шаги
package steps
