package main

import "github.com/zinc-sig/packhost/cmd"

func main() {
	cmd.Execute()
}
