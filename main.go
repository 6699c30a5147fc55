// Command ashtanga is a practice journal for Ashtanga yoga.
package main

import (
	"os"

	"github.com/ashtangalog/ashtanga/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
