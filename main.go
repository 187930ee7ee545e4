package main

import "github.com/hurou927/pg-schema-explorer/cmd"

func main() {
	cmd.Execute()
}
