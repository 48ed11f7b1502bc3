package main

import "github.com/chrisdamba/crashlens/cmd"

func main() {
	cmd.Execute()
}
