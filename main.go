package main

import "github.com/jfmyers9/mpvctl/cmd"

func main() {
	cmd.Execute()
}
