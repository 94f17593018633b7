package main

import "family-tree-backend/cmd"

func main() {
	cmd.Run()
}
