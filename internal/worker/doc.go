// Package worker выполняет вызовы шагов.
//
// # Обзор
//
// Executor — общая точка вызова шага для всех транспортов: HTTP хоста,
// AMQP и цепочек. Он находит шаг в реестре, проверяет конверт ответа,
// пишет метрики и журнал вызовов.
//
// Worker — AMQP транспорт поверх Executor:
//
//   - Получает step.invoke из очереди steps.invoke
//   - Вызывает шаг через Executor
//   - Публикует step.completed в reply_to или steps.completed
//
// Workers масштабируются горизонтально — несколько экземпляров
// потребляют из одной очереди.
//
// # Ack / Nack
//
//	payload не разбирается    → nack без requeue (DLQ)
//	шаг не зарегистрирован    → ack, ответ Failure 404
//	ошибка публикации ответа  → nack с requeue
//	иначе                     → ack
//
// Исход шага (Success/Failure/Exception) всегда доставляется как ответ,
// а не как ошибка доставки.
//
// # Пример
//
//	exec := worker.NewExecutor(worker.ExecutorConfig{
//	    Registry: registry,
//	    Journal:  invocationRepo,
//	    Metrics:  metrics,
//	    Logger:   logger,
//	})
//
//	w := worker.New(worker.Config{
//	    Executor:  exec,
//	    Publisher: mq.NewPublisher(conn, logger),
//	    Conn:      conn,
//	    Logger:    logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
package worker
