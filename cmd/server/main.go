package main

import "solarops/internal/app/server"

func main() {
	server.Run()
}
