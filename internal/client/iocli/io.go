// Package iocli абстрагирует ввод и вывод терминального клиента.
package iocli

import "io"

//go:generate moq -out io_mock.go . IO

// IO ввод и вывод команд CLI
type IO interface {
	io.Writer
	Println(a ...any)
	Printf(format string, a ...any)
	// ReadInput печатает prompt и читает строку без пробелов по краям
	ReadInput(prompt string) (string, error)
	// ReadSecret читает строку без эха, если ввод является терминалом
	ReadSecret(prompt string) (string, error)
}
