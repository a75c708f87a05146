package domain

import "errors"

var (
	// ErrTransport возвращается когда запрос к сервису не завершился (сеть, таймаут)
	ErrTransport = errors.New("transport error")

	// ErrServiceAPI возвращается при структурированной ошибке от сервиса
	ErrServiceAPI = errors.New("trading service error")

	// ErrActionFailed возвращается когда мутирующая команда не выполнилась
	ErrActionFailed = errors.New("action failed")

	// ErrNoOpenPosition возвращается при закрытии позиции, когда позиции нет.
	// Отклоняется локально, без сетевого вызова.
	ErrNoOpenPosition = errors.New("no open position")

	// ErrTradeNotOpen возвращается при закрытии сделки, которой нет среди открытых
	ErrTradeNotOpen = errors.New("trade is not open")

	// ErrAlreadyClosing возвращается при повторной отправке закрытия той же сделки
	ErrAlreadyClosing = errors.New("trade close already in flight")

	// ErrDatabaseConnection возвращается при ошибке подключения к БД
	ErrDatabaseConnection = errors.New("database connection error")
)
