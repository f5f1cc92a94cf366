//go:build !darwin

package main

import "os"

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-gui" {
			initGUI()
			return
		}
	}
	run()
}
