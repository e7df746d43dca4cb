package main

import "github.com/PDAC95/wani/cmd/wanictl/cmd"

func main() {
	cmd.Execute()
}
