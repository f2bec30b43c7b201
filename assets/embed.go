package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed sql
var sqlFS embed.FS

//go:embed chat_prompt.txt
var chatPrompt string

// Migrations returns the migration scripts for a SQL dialect ("sqlite" or "postgres").
// Files are applied in lexical order.
func Migrations(dialect string) (fs.FS, error) {
	switch dialect {
	case "sqlite", "postgres":
		return fs.Sub(sqlFS, "sql/"+dialect)
	}
	return nil, fmt.Errorf("assets: no migrations for dialect %q", dialect)
}

// ChatPrompt is the system prompt sent ahead of every assistant conversation.
func ChatPrompt() string {
	return strings.TrimSpace(chatPrompt)
}
