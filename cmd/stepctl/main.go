// stepctl — инструмент командной строки для шагов.
//
// Использование:
//
//	stepctl [--config FILE] [--host URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	steps        Вызов шагов и self-test
//	chain        Запуск и проверка цепочек
//	smoke        Проверка search, scrape и LLM клиентов
//	invocations  Журнал вызовов step host
package main

import (
	"fmt"
	"os"

	"github.com/shaiso/stepflow/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
