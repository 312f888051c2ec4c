package main

import (
	"fmt"
	"os"

	"github.com/webitel/signal-matchmaker/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}
