// Package config загружает конфигурацию step host и stepctl через viper.
//
// Источники по убыванию приоритета:
//   - переменные окружения с префиксом STEPFLOW_ (STEPFLOW_HTTP_ADDR, STEPFLOW_DB_ENABLED)
//   - YAML файл, переданный в Load
//   - значения по умолчанию
//
// Пример файла:
//
//	log:
//	  level: DEBUG
//	  format: text
//	steplog:
//	  enabled: true
//	  output: stderr
//	http:
//	  addr: ":9090"
//	db:
//	  enabled: true
//	toolkit:
//	  llm:
//	    provider: openai
//	    providers:
//	      openai:
//	        api_key: ${OPENAI_API_KEY}
package config
