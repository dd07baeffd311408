package main

import "commentlens/cmd/handlers"

func main() {
	handlers.Execute()
}
