package database

import "errors"

var (
	// ErrSlotFull отдаётся, когда пара (дата, слот) уже занята полностью
	ErrSlotFull = errors.New("time slot is fully booked")

	// ErrUnknownSlot слот вне настроенного набора
	ErrUnknownSlot = errors.New("unknown time slot")

	ErrReservationNotFound = errors.New("reservation not found")
	ErrHistoryNotFound     = errors.New("history record not found")
	ErrMenuItemNotFound    = errors.New("menu item not found")

	// ErrInvalidStatus недопустимый целевой статус перехода
	ErrInvalidStatus = errors.New("invalid reservation status")

	ErrPastDate   = errors.New("reservation date is in the past")
	ErrDateTooFar = errors.New("reservation date is too far in the future")

	// ErrIDSpaceExhausted генератор не нашёл свободный суффикс за отведённые попытки
	ErrIDSpaceExhausted = errors.New("reservation id space exhausted")

	// ErrDuplicateRecord запись существует в обеих коллекциях сразу;
	// ломает инвариант ёмкости и требует операционного вмешательства
	ErrDuplicateRecord = errors.New("record exists in both active and history collections")
)
