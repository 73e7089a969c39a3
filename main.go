package main

import "github.com/shouni/book-meta-pipe-go/cmd"

func main() {
	cmd.Execute()
}
