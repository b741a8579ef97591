package embedsql

import _ "embed"

// Schema is the sqlite schema for the task store.
//
//go:embed schema.sql
var Schema string
