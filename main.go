// The main package for the comicsync executable.
package main

import (
	"github.com/lunarforge/comicsync/cmd"
)

func main() {
	cmd.Execute()
}
