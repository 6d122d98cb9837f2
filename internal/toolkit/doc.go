// Package toolkit содержит клиенты внешних API и smoke harness.
//
//   - SearchClient — поиск через SearXNG-совместимый JSON endpoint
//   - Scraper      — загрузка страницы и извлечение текста
//   - LLM          — запрос к языковой модели (anthropic, openai, ollama)
//   - Harness      — последовательная проверка всех трёх клиентов
//
// Ошибки конфигурации (*ConfigurationError) и загрузки (*FetchError)
// возвращаются вызывающему, а не печатаются.
package toolkit
