//go:build darwin

package native

func hostBackend() (Backend, error) {
	return Backend{Name: "carbon", Mechanism: RegisteredHotkey, Hook: Grab{}}, nil
}

func diagnose() (string, error) {
	return "carbon: registered hotkeys via RegisterEventHotKey (media keys unavailable)", nil
}
