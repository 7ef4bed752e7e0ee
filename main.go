package main

import (
	"github.com/anoixa/photo-album/cmd"
)

func main() {
	cmd.Execute()
}
