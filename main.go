package main

import (
	"github.com/appmigrate/appmigrate/cmd"
)

func main() {
	cmd.Execute()
}
