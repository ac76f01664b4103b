// Command hangang is a terminal front-end for the Hangang park app: the
// community feed, inquiries, busking applications and the map markers.
//
// The login session is kept in a small SQLite file between runs, the way
// the mobile app keeps it in device preferences.
package main

import (
	"fmt"
	"os"

	"github.com/sakif/hangang/internal/apperror"
)

func main() {
	root, closeApp := newRootCmd()
	err := root.Execute()
	closeApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, apperror.UserMessage(err))
		os.Exit(1)
	}
}
