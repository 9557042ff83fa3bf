package main

import "trekhub_backend/internal/app"

func main() {
	app.Run()
}
