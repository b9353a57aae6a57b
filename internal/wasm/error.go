package wasm

import "fmt"

// Error is the loader/host-level fault taxonomy (spec.md §7): distinct from
// a Trap, fatal to the operation that produced it, but never to the host
// itself — the host remains usable for other modules after an Error.
type Error struct {
	Kind    ErrorKind
	Module  string
	Name    string
	Version uint32
	Byte    byte
	Message string
}

// ErrorKind enumerates the loader/host error taxonomy from spec.md §7.
type ErrorKind int

const (
	ErrInvalidModule ErrorKind = iota
	ErrModuleNotFound
	ErrExportNotFound
	ErrExportTypeMismatch
	ErrUnsupportedVersion
	ErrLayout
	ErrUTF8
	ErrIO
	ErrUnknownOpcode
)

func (e *Error) Error() string {
	switch e.Kind {
	case ErrInvalidModule:
		return "invalid module"
	case ErrModuleNotFound:
		return fmt.Sprintf("module not found: %s", e.Module)
	case ErrExportNotFound:
		return fmt.Sprintf("export not found: %s.%s", e.Module, e.Name)
	case ErrExportTypeMismatch:
		return fmt.Sprintf("export type mismatch: %s.%s", e.Module, e.Name)
	case ErrUnsupportedVersion:
		return fmt.Sprintf("unsupported version: %d", e.Version)
	case ErrLayout:
		return "layout error"
	case ErrUTF8:
		return "invalid utf-8"
	case ErrIO:
		return fmt.Sprintf("io error: %s", e.Message)
	case ErrUnknownOpcode:
		return fmt.Sprintf("unknown opcode: 0x%02x", e.Byte)
	default:
		return e.Message
	}
}

func ErrorInvalidModule(reason string) *Error {
	return &Error{Kind: ErrInvalidModule, Message: reason}
}

func ErrorModuleNotFound(module string) *Error {
	return &Error{Kind: ErrModuleNotFound, Module: module}
}

func ErrorExportNotFound(module, name string) *Error {
	return &Error{Kind: ErrExportNotFound, Module: module, Name: name}
}

func ErrorExportTypeMismatch(module, name string) *Error {
	return &Error{Kind: ErrExportTypeMismatch, Module: module, Name: name}
}

func ErrorUnsupportedVersion(version uint32) *Error {
	return &Error{Kind: ErrUnsupportedVersion, Version: version}
}

func ErrorIO(message string) *Error {
	return &Error{Kind: ErrIO, Message: message}
}

func ErrorUnknownOpcode(b byte) *Error {
	return &Error{Kind: ErrUnknownOpcode, Byte: b}
}
