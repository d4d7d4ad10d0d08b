package main

import "github.com/classtrack/faceattend/cmd"

func main() {
	cmd.Execute()
}
