package service

import (
	"fmt"
	"strconv"
	"strings"

	"feedsync/app/repositories"
)

// ShowLiked prints the persisted liked-set and returns an exit code.
func ShowLiked() int {
	if !dbExists() {
		fmt.Println("No liked posts (database does not exist)")
		return 0
	}

	liked, err := repositories.OpenLikedRepository(dbPath)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer liked.Close()

	ids, err := liked.Load()
	if err != nil {
		fmt.Printf("Failed to read liked posts: %v\n", err)
		return 1
	}
	if len(ids) == 0 {
		fmt.Println("No liked posts")
		return 0
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	fmt.Printf("Liked posts (%d): %s\n", len(ids), strings.Join(parts, ", "))
	return 0
}
