package main

import "github.com/quatton/qwell/apps/qwellcloud/cmd"

func main() {
	cmd.Execute()
}
