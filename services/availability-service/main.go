package main

import "github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/app"

func main() {
	app.Execute()
}
