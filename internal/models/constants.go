package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCanceled  = "canceled"
)

// Booking flow steps. A customer session moves strictly forward through
// these; nothing is persisted until the final step completes.
const (
	StepSelectingDate     = "selecting_date"
	StepFillingForm       = "filling_form"
	StepConfirmingPayment = "confirming_payment"
	StepSucceeded         = "succeeded"
)

const (
	// SlotCapacity is the maximum number of active reservations per (date, slot) pair.
	SlotCapacity = 2

	// IDSuffixMin / IDSuffixMax bound the numeric suffix of reservation identifiers.
	IDSuffixMin = 100
	IDSuffixMax = 999

	// IDMaxAttempts caps identifier generation retries before failing loudly.
	IDMaxAttempts = 10000
)

const (
	// DefaultRedisTTL время жизни состояния сессии бронирования в Redis
	DefaultRedisTTL = 24 * 60 * 60 // 24 часа в секундах

	// DefaultExportRangeMonthsBefore диапазон выгрузки отчёта по умолчанию
	DefaultExportRangeMonthsBefore = 1

	// WorkerQueueSize размер очереди воркера синхронизации
	WorkerQueueSize = 1000

	// RateLimitRequests количество запросов в окне на одну сессию
	RateLimitRequests = 20

	// RateLimitWindow окно ограничения частоты запросов
	RateLimitWindow = 60 // 1 минута в секундах
)

// DateLayout is the wire and storage form of calendar dates.
const DateLayout = "2006-01-02"
