package main

import "cbmdisk/cmd"

func main() {
	cmd.Execute()
}
