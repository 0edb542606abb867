package main

import "github.com/kegworks/keg/cmd/keg/internal"

func main() {
	internal.Execute()
}
