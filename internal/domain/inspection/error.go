package inspection

import (
	"errors"
)

var (
	// ErrStorageUnavailable локальное хранилище не может быть открыто
	ErrStorageUnavailable = errors.New("local storage unavailable")
	// ErrSchema схема хранилища не может быть мигрирована (в т.ч. даунгрейд)
	ErrSchema = errors.New("local storage schema error")

	ErrNotFound = errors.New("inspection record not found")

	// ErrDuplicate сервер уже содержит запись с таким client_id
	ErrDuplicate = errors.New("inspection already exists remotely")

	ErrRetryRequired    = errors.New("record is failed, explicit retry required")
	ErrAlreadySubmitted = errors.New("record already submitted")
	ErrNotSynced        = errors.New("record is not synced")
	ErrInFlight         = errors.New("record sync already in progress")
)
