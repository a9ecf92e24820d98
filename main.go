package main

import "github.com/encodeous/sensornet/cmd"

func main() {
	cmd.Execute()
}
