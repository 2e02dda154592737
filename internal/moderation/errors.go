package moderation

import "errors"

var (
	// ErrConfigurationMissing marks a required policy setting that was absent.
	// The engine falls back to a default and keeps going.
	ErrConfigurationMissing = errors.New("configuración faltante")

	// ErrPersistenceFailure marks a store that could not be read or written.
	ErrPersistenceFailure = errors.New("fallo de persistencia")

	// ErrPlatformCallFailure marks a failed send, delete, member fetch or mute.
	ErrPlatformCallFailure = errors.New("fallo en la llamada a la plataforma")

	// ErrPolicyNotConfigured means a policy has no target configured for the
	// guild. It never fails a message; the policy simply does not trigger.
	ErrPolicyNotConfigured = errors.New("política no configurada")
)
