// Command protoval проверяет опции валидации и генерирует код без protoc.
package main

import (
	"os"

	"github.com/protoval/protoval/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
