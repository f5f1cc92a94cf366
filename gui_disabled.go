//go:build !gui

package main

func initGUI() {
	panic("keyhook: built without GUI support (rebuild with -tags gui)")
}

func runGUI(*daemon, string) {
	panic("keyhook: built without GUI support (rebuild with -tags gui)")
}
