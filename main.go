package main

import "github.com/shopscript/apiserver/cmd"

func main() {
	cmd.Execute()
}
