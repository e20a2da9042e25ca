package session

import "strings"

// Open picks a backend from the path: empty means in-memory, a .db
// suffix means SQLite, anything else a JSON file.
func Open(path string) (Store, error) {
	switch {
	case path == "":
		return NewMemory(), nil
	case strings.HasSuffix(path, ".db"):
		return OpenSQLite(path)
	default:
		return OpenFile(path)
	}
}
