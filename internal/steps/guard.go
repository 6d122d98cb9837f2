package steps

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/telemetry"
)

// Handler — доменная логика шага внутри границы отказов.
type Handler func() (envelope.Response, error)

// Guard — граница отказов шага.
//
// Ожидаемые ошибки (ErrDecode, ErrInvalidInput, *DomainError) превращаются
// в Exception с диагностикой. Прочие ошибки и паники тоже дают Exception,
// но пишутся в журнал отдельно на уровне Critical, чтобы баги реализации
// не выглядели как бизнес-исключения. Ответ, нарушающий контракт конверта,
// заменяется на Exception.
func Guard(log *telemetry.StepLogger, fn Handler) (resp envelope.Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Critical(fmt.Sprintf("unexpected panic: %v\n%s", r, debug.Stack()))
			resp = envelope.Exception(fmt.Sprintf("internal error: %v", r))
		}
	}()

	resp, err := fn()
	if err != nil {
		return exceptionFor(log, err)
	}

	if err := envelope.Validate(resp); err != nil {
		log.Critical("invalid response: " + err.Error())
		return envelope.Exception("internal error: " + err.Error())
	}

	return resp
}

// exceptionFor переводит ошибку в Exception.
func exceptionFor(log *telemetry.StepLogger, err error) envelope.Response {
	var domainErr *DomainError
	switch {
	case errors.As(err, &domainErr):
		log.Warn("exception raised: " + domainErr.Message)
		if domainErr.Diagnostic != "" {
			return envelope.Exception(domainErr.Diagnostic)
		}
		return envelope.Exception(domainErr.Message)

	case errors.Is(err, envelope.ErrDecode), errors.Is(err, ErrInvalidInput):
		log.Warn("exception raised: " + err.Error())
		return envelope.Exception(err.Error())

	default:
		log.Critical("unexpected error: " + err.Error())
		return envelope.Exception("internal error: " + err.Error())
	}
}

// Run выполняет типовой алгоритм шага:
//
//  1. Запись о входе (с GUID)
//  2. Доменная логика внутри Guard
//  3. Запись о выходе с исходом
//
// Декодирование Data — часть fn: шаги, которые не потребляют вход, его не трогают.
func Run(log *telemetry.StepLogger, req envelope.Request, fn Handler) envelope.Response {
	log.Info("entering: " + req.GUID)

	resp := Guard(log, fn)

	outcome, err := resp.Text()
	if err != nil {
		outcome = resp.Data
	}
	log.Info(fmt.Sprintf("exiting: %s %s", resp.Result, outcome))

	return resp
}
