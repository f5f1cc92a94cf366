package host

import "fyne.io/fyne/v2"

// Fyne posts funcs onto the fyne app's main goroutine with fyne.Do. The app
// must be running for posts to execute.
type Fyne struct{}

func (Fyne) Post(fn func()) { fyne.Do(fn) }
