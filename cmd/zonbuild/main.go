package main

import (
	"github.com/zonbuild/zonbuild/pkg/cmd"
)

func main() {
	cmd.Execute()
}
