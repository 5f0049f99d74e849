// Package main is the entry point for the unisql CLI.
package main

import (
	"context"
	"os"

	"github.com/satishbabariya/unisql/cmd/unisql/commands"
	_ "github.com/satishbabariya/unisql/internal/adapters/database/mysql"
	_ "github.com/satishbabariya/unisql/internal/adapters/database/postgres"
	_ "github.com/satishbabariya/unisql/internal/adapters/database/sqlite"
)

func main() {
	os.Exit(commands.Execute(context.Background()))
}
