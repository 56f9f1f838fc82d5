package service

import (
	"fmt"
	"os"
	"path/filepath"
)

// Database path - variable to allow testing with different paths
var dbPath = "data/badger"

// SetDBPath points the commands at the liked-state database.
func SetDBPath(path string) {
	if path != "" {
		dbPath = path
	}
}

// backupDir sits next to the database, data/backups by default.
func backupDir() string {
	return filepath.Join(filepath.Dir(dbPath), "backups")
}

func dbExists() bool {
	_, err := os.Stat(dbPath)
	return err == nil
}

// confirm asks a yes/no question on stdin; anything but y or Y is a no.
func confirm(prompt string) bool {
	fmt.Print(prompt + " [y/N] ")
	var response string
	fmt.Fscanln(os.Stdin, &response)
	return response == "y" || response == "Y"
}
