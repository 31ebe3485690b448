package main

import "github.com/gaurav-prasanna/enmark/cmd"

func main() {
	cmd.Execute()
}
